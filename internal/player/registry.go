// Package player owns the running-instance table: at most one external
// playback process per account, launched against a currently valid token.
package player

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/f8k8/spotify-house-player/internal/accounts"
	"github.com/f8k8/spotify-house-player/internal/metrics"
)

var (
	ErrAlreadyRunning = errors.New("player already running")
	ErrNotRunning     = errors.New("player not running")
	ErrLaunchFailed   = errors.New("player launch failed")
	ErrStopFailed     = errors.New("player stop failed")
)

// TokenSource is the token-manager slice the registry needs: a token that is
// valid right now, refreshed if necessary.
type TokenSource interface {
	GetValidToken(ctx context.Context, name string) (string, error)
}

type instance struct {
	id               string
	name             string
	displayName      string
	audioDestination string
	launchedAt       time.Time
	handle           Handle
}

// Info is the list projection of a running instance.
type Info struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	DisplayName      string    `json:"displayName"`
	AudioDestination string    `json:"audioDestination"`
	LaunchedAt       time.Time `json:"launchedAt"`
}

// Registry maps account name to its single running instance. An entry in the
// map means the process is believed alive; a process that dies on its own
// leaves a stale entry until the next explicit stop.
type Registry struct {
	log        *zap.SugaredLogger
	store      *accounts.Store
	tokens     TokenSource
	controller Controller

	mu        sync.Mutex
	instances map[string]*instance
}

func NewRegistry(log *zap.SugaredLogger, store *accounts.Store, tokens TokenSource, controller Controller) *Registry {
	return &Registry{
		log:        log,
		store:      store,
		tokens:     tokens,
		controller: controller,
		instances:  map[string]*instance{},
	}
}

// Launch checks, in order: the account exists, a valid token is obtainable
// (token-manager errors pass through unchanged), and no instance is already
// registered. The entry is reserved before the slow process start, so a
// concurrent launch for the same account observes ErrAlreadyRunning instead
// of racing to a second process.
func (r *Registry) Launch(ctx context.Context, name, audioDestination, displayName string) (*Info, error) {
	if _, ok := r.store.Get(name); !ok {
		return nil, fmt.Errorf("%w: %s", accounts.ErrNotFound, name)
	}
	token, err := r.tokens.GetValidToken(ctx, name)
	if err != nil {
		metrics.Launches.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if audioDestination == "" {
		audioDestination = "default"
	}
	if displayName == "" {
		displayName = name
	}

	inst := &instance{
		id:               uuid.NewString(),
		name:             name,
		displayName:      displayName,
		audioDestination: audioDestination,
	}
	r.mu.Lock()
	if _, exists := r.instances[name]; exists {
		r.mu.Unlock()
		metrics.Launches.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}
	r.instances[name] = inst
	r.mu.Unlock()

	handle, err := r.controller.Start(ctx, StartSpec{
		Account:     name,
		Token:       token,
		Destination: audioDestination,
		Label:       displayName,
	})
	if err != nil {
		r.mu.Lock()
		delete(r.instances, name)
		r.mu.Unlock()
		metrics.Launches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	r.mu.Lock()
	if cur, ok := r.instances[name]; !ok || cur != inst {
		// Stopped while the process was coming up; don't leak it.
		r.mu.Unlock()
		_ = r.controller.Stop(handle)
		metrics.Launches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: stopped during launch", ErrLaunchFailed)
	}
	inst.handle = handle
	inst.launchedAt = time.Now()
	metrics.RunningPlayers.Set(float64(len(r.instances)))
	r.mu.Unlock()
	metrics.Launches.WithLabelValues("ok").Inc()
	r.log.Infow("player launched", "account", name, "destination", audioDestination, "label", displayName)
	return inst.info(), nil
}

// Stop removes the entry whatever the termination outcome; a failed kill
// must never leave the account permanently "already running".
func (r *Registry) Stop(name string) error {
	r.mu.Lock()
	inst, ok := r.instances[name]
	if !ok {
		r.mu.Unlock()
		metrics.Stops.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %s", ErrNotRunning, name)
	}
	delete(r.instances, name)
	metrics.RunningPlayers.Set(float64(len(r.instances)))
	r.mu.Unlock()

	if inst.handle != nil {
		if err := r.controller.Stop(inst.handle); err != nil {
			metrics.Stops.WithLabelValues("error").Inc()
			r.log.Warnw("player termination reported error", "account", name, "err", err)
			return fmt.Errorf("%w: %v", ErrStopFailed, err)
		}
	}
	metrics.Stops.WithLabelValues("ok").Inc()
	r.log.Infow("player stopped", "account", name)
	return nil
}

// Running reports whether an instance is registered for the account.
func (r *Registry) Running(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.instances[name]
	return ok
}

// List returns running instances sorted by account name.
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, 0, len(r.instances))
	for _, inst := range r.instances {
		if inst.handle == nil {
			continue // launch still in flight
		}
		out = append(out, *inst.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ShutdownAll stops every registered instance, best-effort, before the
// process exits. Called exactly once during shutdown.
func (r *Registry) ShutdownAll() {
	r.mu.Lock()
	remaining := make([]*instance, 0, len(r.instances))
	for _, inst := range r.instances {
		remaining = append(remaining, inst)
	}
	r.instances = map[string]*instance{}
	metrics.RunningPlayers.Set(0)
	r.mu.Unlock()

	for _, inst := range remaining {
		if inst.handle == nil {
			continue
		}
		if err := r.controller.Stop(inst.handle); err != nil {
			r.log.Warnw("shutdown: player termination reported error", "account", inst.name, "err", err)
		}
	}
	if len(remaining) > 0 {
		r.log.Infow("all players stopped", "count", len(remaining))
	}
}

func (i *instance) info() *Info {
	return &Info{
		ID:               i.id,
		Name:             i.name,
		DisplayName:      i.displayName,
		AudioDestination: i.audioDestination,
		LaunchedAt:       i.launchedAt,
	}
}
