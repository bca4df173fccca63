package collection

import (
	"github.com/ValentinKolb/dObs/lib/dispatch"
	"github.com/VictoriaMetrics/metrics"
)

// config holds the settings shared by every constructor
type config struct {
	dispatcher   dispatch.Dispatcher
	priority     dispatch.Priority
	name         string
	errorHandler func(error)
	metricsSet   *metrics.Set
	separator    string
}

func defaultConfig() config {
	return config{
		priority:  dispatch.PriorityBackground,
		separator: ", ",
	}
}

// Option configures a List
type Option func(*config)

// WithDispatcher sets the owner of the list.
// Without it the list starts its own dispatch.Loop and stops it on Close.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(c *config) { c.dispatcher = d }
}

// WithPriority sets the priority the list dispatches its work with.
// Defaults to dispatch.PriorityBackground.
func WithPriority(p dispatch.Priority) Option {
	return func(c *config) { c.priority = p }
}

// WithName names the list in metric labels and listener errors
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithErrorHandler receives a *ListenerError for every listener that panicked.
// The handler runs on the owner goroutine; a panic inside it is dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) { c.errorHandler = fn }
}

// WithMetrics registers the list instruments in set.
// A loop created by the list registers its instruments there too.
func WithMetrics(set *metrics.Set) Option {
	return func(c *config) { c.metricsSet = set }
}

// WithSeparator sets the separator String puts between elements
func WithSeparator(sep string) Option {
	return func(c *config) { c.separator = sep }
}

// --------------------------------------------------------------------------
// Per-call options
// --------------------------------------------------------------------------

type mutateConfig struct {
	silent bool
}

// MutateOption configures one range or sort operation
type MutateOption func(*mutateConfig)

// WithoutNotify suppresses the change records of the call.
// The mutation is still applied and attribute listeners still fire.
func WithoutNotify() MutateOption {
	return func(c *mutateConfig) { c.silent = true }
}

func newMutateConfig(opts []MutateOption) mutateConfig {
	var c mutateConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
