// Package registry maps node type strings to their handler factories.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluxion-ai/fluxion/pkg/protocol"
)

var (
	// ErrNodeTypeNotSupported indicates a node type with no registered factory.
	// The execution service translates this into a Failed instance, never a crash.
	ErrNodeTypeNotSupported = errors.New("node type not supported")

	// ErrDuplicateNodeType indicates two factories claiming the same type.
	ErrDuplicateNodeType = errors.New("node type already registered")
)

// Registry is the dispatch table from node type to handler factory.
// Lookups are case-insensitive. Built once at startup; not mutated after.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.HandlerFactory),
	}
}

// Register adds a factory. Duplicate registration for the same type is a
// startup-time configuration error.
func (r *Registry) Register(factory protocol.HandlerFactory) error {
	key := strings.ToLower(factory.ID())

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeType, factory.ID())
	}

	r.factories[key] = factory
	r.logger.Debug("Registered node handler", "node_type", key)

	return nil
}

// MustRegister panics on duplicate registration; intended for startup wiring.
func (r *Registry) MustRegister(factory protocol.HandlerFactory) {
	if err := r.Register(factory); err != nil {
		panic(err)
	}
}

// Resolve creates a handler for the given node type and configuration.
func (r *Registry) Resolve(nodeType string, config map[string]any) (protocol.NodeHandler, error) {
	factory, ok := r.factories[strings.ToLower(nodeType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeTypeNotSupported, nodeType)
	}

	return factory.Create(config)
}

// RegisteredTypes returns all registered node types.
func (r *Registry) RegisteredTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	return types
}

// HealthCheck reports whether the registry has any handlers bound.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No node handlers registered", false
	}

	return fmt.Sprintf("%d node handlers registered", len(r.factories)), true
}
