// Package registry implements the capability registry a bus is composed from:
// an extensible mapping from capability type to factory, with
// last-registration-wins override semantics and singleton-per-registry
// resolution.
package registry

import (
	"fmt"
	"reflect"

	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

// Factory produces one capability instance. It receives the registry so it may
// resolve the capabilities it depends on while constructing its own.
type Factory func(r *Registry) (any, error)

// Registry maps capability types to factories and caches resolved instances.
//
// A registry is owned by exactly one composition call and must not be shared
// across goroutines while services are being registered or resolved; it is
// deliberately unsynchronized so that factories can re-enter Resolve for their
// dependencies without deadlocking.
type Registry struct {
	factories map[reflect.Type]Factory
	instances map[reflect.Type]any
	building  map[reflect.Type]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[reflect.Type]Factory),
		instances: make(map[reflect.Type]any),
		building:  make(map[reflect.Type]bool),
	}
}

// RegisterFactory stores factory under capability, unconditionally replacing
// any prior registration. Last registration wins; this is the override
// mechanism callers use to swap default services. Replacing a registration
// also drops any instance already resolved from the previous factory.
func (r *Registry) RegisterFactory(capability reflect.Type, factory Factory) {
	r.factories[capability] = factory
	delete(r.instances, capability)
}

// ResolveType invokes the factory registered under capability and caches the
// result, so repeated resolution yields the same instance for the lifetime of
// the registry. A capability that transitively resolves itself fails rather
// than recursing.
func (r *Registry) ResolveType(capability reflect.Type) (any, error) {
	if inst, ok := r.instances[capability]; ok {
		return inst, nil
	}

	factory, ok := r.factories[capability]
	if !ok {
		return nil, fmt.Errorf("resolve %s: %w", capability, cerr.ErrNotRegistered)
	}

	if r.building[capability] {
		return nil, fmt.Errorf("resolve %s: %w", capability, cerr.ErrCircularDependency)
	}

	r.building[capability] = true
	defer delete(r.building, capability)

	inst, err := factory(r)
	if err != nil {
		return nil, err
	}

	r.instances[capability] = inst

	return inst, nil
}

// TypeOf returns the registry key for capability T. T is usually an interface
// type; the indirection makes interface types addressable to reflect.
func TypeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Register registers a typed factory for capability T, replacing any prior
// registration for T.
func Register[T any](r *Registry, factory func(r *Registry) (T, error)) {
	r.RegisterFactory(TypeOf[T](), func(r *Registry) (any, error) { return factory(r) })
}

// RegisterInstance registers an already-constructed value for capability T.
func RegisterInstance[T any](r *Registry, instance T) {
	Register(r, func(*Registry) (T, error) { return instance, nil })
}

// Resolve resolves capability T from the registry.
func Resolve[T any](r *Registry) (T, error) {
	var zero T

	v, err := r.ResolveType(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	inst, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s: got %T: %w", TypeOf[T](), v, cerr.ErrCapabilityMismatch)
	}

	return inst, nil
}
