package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/chatmesh/logging"
)

// Provider constructs a tool together with its metadata. Providers run at
// discovery time so a failing constructor can be skipped without affecting
// the rest of the registry.
type Provider func() (Tool, Metadata, error)

// Binder receives tools from the registry. Agents implement this so the
// registry can attach every registered tool in one call without depending on
// a concrete agent type.
type Binder interface {
	BindTool(t Tool)
}

// Registry is the central catalog of available tools. It supports direct
// registration, table driven discovery and bulk attachment to an agent.
//
// Registration is last-writer-wins: registering a name twice replaces the
// earlier entry (tool and metadata both) and logs a warning so collisions
// stay visible in diagnostics. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Descriptor
	logger logging.Logger
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives registry diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		tools:  make(map[string]Descriptor),
		logger: opts.Logger,
	}
}

// Register adds a tool under the given name. An existing entry with the same
// name is replaced and the overwrite is logged.
func (r *Registry) Register(name string, t Tool, md Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		r.logger.Warn("registry.register.overwrite", "tool", name)
	}

	r.tools[name] = Descriptor{Name: name, Tool: t, Metadata: md}

	r.logger.Debug("registry.register", "tool", name, "category", md.Category)
}

// Discover runs each provider and registers the tools that construct
// successfully. A failing provider is logged and skipped; it never aborts
// discovery of the remaining providers. Providers run in sorted name order so
// results are deterministic. Returns the names that were registered.
func (r *Registry) Discover(providers map[string]Provider) []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	registered := make([]string, 0, len(providers))

	for _, name := range names {
		t, md, err := providers[name]()
		if err != nil {
			r.logger.Warn("registry.discover.skip", "tool", name, "error", err.Error())
			continue
		}

		if t == nil {
			r.logger.Warn("registry.discover.skip", "tool", name, "error", "provider returned nil tool")
			continue
		}

		r.Register(name, t, md)
		registered = append(registered, name)
	}

	r.logger.Info("registry.discover.done", "registered", len(registered), "total", len(providers))

	return registered
}

// Attach binds every registered tool to the given binder, typically an agent.
func (r *Registry) Attach(b Binder) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.sortedNamesLocked() {
		b.BindTool(r.tools[name].Tool)
	}

	r.logger.Debug("registry.attach", "count", len(r.tools))

	return len(r.tools)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.tools[name]
	if !ok {
		return nil, false
	}

	return d.Tool, true
}

// Describe returns the full descriptor for a registered tool.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.tools[name]

	return d, ok
}

// List returns metadata for all registered tools keyed by name. The result
// carries no tool references, so callers can inspect the catalog without
// being able to invoke anything.
func (r *Registry) List() map[string]Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Metadata, len(r.tools))
	for name, d := range r.tools {
		out[name] = d.Metadata
	}

	return out
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNamesLocked()
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// Unregister removes a tool by name. Returns an error if the name is unknown.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("tool %q not registered", name)
	}

	delete(r.tools, name)

	r.logger.Debug("registry.unregister", "tool", name)

	return nil
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
