package adapter

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// ApplyFunc is called when an adapter produces a fragment to be merged
// into the diagram.
type ApplyFunc func(ctx context.Context, source string, fragment *Fragment) error

// Registry manages registered adapters and their lifecycle.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	configs  map[string]Config
	apply    ApplyFunc
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistry creates a registry that hands fragments to apply.
func NewRegistry(apply ApplyFunc) *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		configs:  make(map[string]Config),
		apply:    apply,
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter, config Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	r.adapters[name] = a
	r.configs[name] = config
	log.Printf("Registered adapter: %s (type=%s, enabled=%v)", name, a.Type(), config.Enabled)

	return nil
}

// Start initializes all enabled adapters and begins polling loops.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctx, r.cancel = context.WithCancel(ctx)

	for name, a := range r.adapters {
		config := r.configs[name]
		if !config.Enabled {
			log.Printf("Adapter %s is disabled, skipping", name)
			continue
		}

		if err := a.Start(r.ctx); err != nil {
			log.Printf("Failed to start adapter %s: %v", name, err)
			continue
		}

		if a.Type() == TypePolling {
			r.startPollingLoop(name, a, config)
		}
	}

	return nil
}

// Stop gracefully shuts down all adapters.
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()

	for name, a := range r.adapters {
		if err := a.Stop(); err != nil {
			log.Printf("Error stopping adapter %s: %v", name, err)
		}
	}

	return nil
}

// TriggerSync manually triggers a sync for one adapter.
func (r *Registry) TriggerSync(ctx context.Context, name string) error {
	r.mu.RLock()
	a, exists := r.adapters[name]
	config := r.configs[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("adapter %s not found", name)
	}
	if !config.Enabled {
		return fmt.Errorf("adapter %s is disabled", name)
	}

	return r.runSync(ctx, name, a)
}

// Info provides read-only information about a registered adapter.
type Info struct {
	Name         string `json:"name"`
	Type         Type   `json:"type"`
	Enabled      bool   `json:"enabled"`
	PollInterval string `json:"poll_interval,omitempty"`
}

// List returns information about registered adapters.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []Info
	for name, a := range r.adapters {
		config := r.configs[name]
		infos = append(infos, Info{
			Name:         name,
			Type:         a.Type(),
			Enabled:      config.Enabled,
			PollInterval: config.PollInterval,
		})
	}
	return infos
}

func (r *Registry) startPollingLoop(name string, a Adapter, config Config) {
	interval, err := time.ParseDuration(config.PollInterval)
	if err != nil {
		log.Printf("Invalid poll interval for %s: %v, using 1m default", name, err)
		interval = time.Minute
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				log.Printf("Stopping polling loop for %s", name)
				return
			case <-ticker.C:
				if err := r.runSync(r.ctx, name, a); err != nil {
					log.Printf("Sync failed for %s: %v", name, err)
				}
			}
		}
	}()

	log.Printf("Started polling loop for %s (interval=%s)", name, interval)
}

func (r *Registry) runSync(ctx context.Context, name string, a Adapter) error {
	log.Printf("Running sync for adapter: %s", name)

	fragment, err := a.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if fragment.Empty() {
		log.Printf("Adapter %s returned empty fragment", name)
		return nil
	}

	if err := r.apply(ctx, name, fragment); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	log.Printf("Adapter %s sync complete: %d devices, %d connections", name, len(fragment.Devices), len(fragment.Connections))
	return nil
}
