package graft

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/overdevelop/graft/internal/config"
	"github.com/overdevelop/graft/internal/logger"
)

// Injector resolves keys into instances, building and caching the supplier of
// every key it is asked for.
type Injector struct {
	bindings   store
	factories  sync.Map // Key -> *factory, contributed by supplies methods
	configured sync.Map // reflect.Type -> *configState
	provider   TypeDescriptorProvider
	logger     *slog.Logger
	threshold  int
}

// Option configures an Injector.
type Option func(inj *Injector)

// WithProvider replaces the default Registry.
func WithProvider(p TypeDescriptorProvider) Option {
	return func(inj *Injector) {
		if p != nil {
			inj.provider = p
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(inj *Injector) {
		if l != nil {
			inj.logger = l
		}
	}
}

// WithSpecializationThreshold sets after how many calls a supplier switches to
// the specialized invocation path. Zero disables the switch.
func WithSpecializationThreshold(n int) Option {
	return func(inj *Injector) {
		inj.threshold = max(n, 0)
	}
}

// WithEnv loads settings from the environment and the given .env files.
func WithEnv(envFiles ...string) Option {
	return func(inj *Injector) {
		applyConfig(inj, config.Load(envFiles...))
	}
}

func applyConfig(inj *Injector, cfg config.Config) {
	inj.threshold = max(cfg.SpecializationThreshold, 0)
	inj.logger = logger.New(cfg)
}

// New creates an injector. The injector is bound to itself under
// KeyOf[*Injector]() and KeyOf[Binder]().
//
// Example:
//
//	reg := graft.NewRegistry()
//	graft.Register[*Service](reg, graft.Constructor(NewService))
//
//	inj := graft.New(graft.WithProvider(reg))
//	svc, err := graft.Get[*Service](inj)
func New(opts ...Option) *Injector {
	inj := &Injector{
		provider:  NewRegistry(),
		logger:    logger.Default(),
		threshold: config.DefaultSpecializationThreshold,
	}

	for _, opt := range opts {
		opt(inj)
	}

	self := constant(inj)
	inj.bindings.install(&entry{key: KeyOf[*Injector](), supplier: self, target: "injector", resolved: true})
	inj.bindings.install(&entry{key: KeyOf[Binder](), supplier: self, target: "injector", resolved: true})

	return inj
}

// Get returns an instance for key.
func (inj *Injector) Get(key Key) (any, error) {
	s, err := inj.Supplier(key)
	if err != nil {
		return nil, err
	}
	return s()
}

// Supplier returns the producer for key, building and installing it if the key
// is not bound yet. For an indirect key the producer yields a Supplier of the
// direct key which is resolved on first use.
func (inj *Injector) Supplier(key Key) (Supplier, error) {
	return inj.supplier(key, newTrail())
}

// Bindings returns a snapshot of the installed bindings sorted by key.
func (inj *Injector) Bindings() []Binding {
	return inj.bindings.snapshot()
}

// Invoke calls fn with its parameters resolved from the injector. fn must
// return a value, optionally followed by an error.
func (inj *Injector) Invoke(fn any, opts ...MethodOption) (any, error) {
	m, err := buildMethod(fn, opts)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidArguments, Msg: "invoke", Err: err}
	}

	params, err := inj.parameters(m.Name, m.Params, newTrail())
	if err != nil {
		return nil, err
	}
	return construct(m.Call, params)()
}

func (inj *Injector) describe(typ reflect.Type) (*Descriptor, error) {
	d, err := inj.provider.Describe(typ)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("no descriptor for %s", typ)
	}
	return d, nil
}
