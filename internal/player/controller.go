package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StartSpec is everything the external player runtime needs to come up
// authenticated and audible on the right sink.
type StartSpec struct {
	Account     string
	Token       string
	Destination string
	Label       string
}

// Handle is an opaque reference to a started process, returned by Start and
// consumed by Stop.
type Handle interface{}

// Controller drives the external playback runtime. The production
// implementation launches a headless process per account; tests substitute
// their own.
type Controller interface {
	Start(ctx context.Context, spec StartSpec) (Handle, error)
	Stop(h Handle) error
}

// stopGrace is how long a player gets after SIGTERM before the group is
// killed outright.
const stopGrace = 5 * time.Second

// ExecController starts one OS process per player. Each child runs in its
// own process group so the whole runtime tree (the headless browser and its
// helpers) is terminated together.
type ExecController struct {
	log      *zap.SugaredLogger
	execPath string
}

// NewExecController validates the runtime executable once, up front. A
// missing or unset path is a configuration error the caller treats as fatal.
func NewExecController(log *zap.SugaredLogger, execPath string) (*ExecController, error) {
	if execPath == "" {
		return nil, fmt.Errorf("player executable not configured (HOUSE_PLAYER_EXEC)")
	}
	fi, err := os.Stat(execPath)
	if err != nil {
		return nil, fmt.Errorf("player executable %s: %w", execPath, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("player executable %s is a directory", execPath)
	}
	return &ExecController{log: log, execPath: execPath}, nil
}

type execHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (c *ExecController) Start(ctx context.Context, spec StartSpec) (Handle, error) {
	cmd := exec.Command(c.execPath,
		"--account", spec.Account,
		"--device-name", spec.Label,
		"--audio-destination", spec.Destination,
	)
	// Token goes through the environment, not argv, so it never shows in ps.
	cmd.Env = append(os.Environ(), "SPOTIFY_ACCESS_TOKEN="+spec.Token)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player process: %w", err)
	}

	h := &execHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		close(h.done)
		if err != nil {
			c.log.Warnw("player process exited", "account", spec.Account, "pid", cmd.Process.Pid, "err", err)
		} else {
			c.log.Infow("player process exited", "account", spec.Account, "pid", cmd.Process.Pid)
		}
	}()
	c.log.Infow("player process started", "account", spec.Account, "pid", cmd.Process.Pid, "destination", spec.Destination)
	return h, nil
}

// Stop terminates the process group: SIGTERM, then SIGKILL after the grace
// period. Returns an error only when the group could not be signalled at all.
func (c *ExecController) Stop(h Handle) error {
	eh, ok := h.(*execHandle)
	if !ok || eh.cmd.Process == nil {
		return fmt.Errorf("invalid process handle")
	}
	pgid := eh.cmd.Process.Pid
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
		if err == syscall.ESRCH {
			return nil // already gone
		}
		return fmt.Errorf("signal player process group %d: %w", pgid, err)
	}
	select {
	case <-eh.done:
	case <-time.After(stopGrace):
		c.log.Warnw("player process ignored SIGTERM, killing", "pgid", pgid)
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		<-eh.done
	}
	return nil
}
