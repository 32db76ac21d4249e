package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/william251082/fileupload/logger"
)

// StopTimeout bounds how long a single component may take to stop.
const StopTimeout = 10 * time.Second

type entry struct {
	component Component
	started   bool
}

// Registry starts components in registration order and stops them in reverse.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	lookup  map[string]*entry
	log     *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		lookup: make(map[string]*entry),
		log:    log.WithComponent("components"),
	}
}

// Register adds a component. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{component: c}
	r.entries = append(r.entries, e)
	r.lookup[name] = e
	return nil
}

// StartAll starts every component in order and stops at the first failure.
// Components that started before the failure stay started; callers are
// expected to call StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		name := e.component.Name()
		if err := e.component.Start(ctx); err != nil {
			r.log.Error("component start failed", map[string]interface{}{"component": name, "error": err.Error()})
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true

		fields := map[string]interface{}{"component": name}
		if d, ok := e.component.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		r.log.Info("component started", fields)
	}
	return nil
}

// StopAll stops started components in reverse order and joins the errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()

		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		err := e.component.Stop(stopCtx)
		cancel()
		e.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Error("component stop failed", map[string]interface{}{"component": name, "error": err.Error()})
			continue
		}
		r.log.Info("component stopped", map[string]interface{}{"component": name})
	}
	return errors.Join(errs...)
}

// HealthAll returns the health of every registered component.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, 0, len(r.entries))
	for _, e := range r.entries {
		results = append(results, e.component.Health(ctx))
	}
	return results
}

// Get returns a registered component by name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.lookup[name]; ok {
		return e.component
	}
	return nil
}

// Report pairs a component's self description with its current health.
type Report struct {
	Description Description
	Health      Health
}

// Reports returns a report per component in registration order. Components
// that are not Describable are reported under their Name.
func (r *Registry) Reports(ctx context.Context) []Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Report, 0, len(r.entries))
	for _, e := range r.entries {
		desc := Description{Name: e.component.Name()}
		if d, ok := e.component.(Describable); ok {
			desc = d.Describe()
		}
		out = append(out, Report{Description: desc, Health: e.component.Health(ctx)})
	}
	return out
}

// RegisterAndStart adds a component after StartAll has run and starts it at
// once. It stops first on StopAll, like any component registered last.
func (r *Registry) RegisterAndStart(ctx context.Context, c Component) error {
	if err := r.Register(c); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.lookup[c.Name()]
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start %s: %w", c.Name(), err)
	}
	e.started = true
	r.log.Info("component started", map[string]interface{}{"component": c.Name()})
	return nil
}
