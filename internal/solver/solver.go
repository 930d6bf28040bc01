package solver

import (
	"log/slog"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

// NewOptimizer applies options on top of the default settings. An
// extension set is required.
func NewOptimizer(options ...Option) (Optimizer, error) {
	o := optimizer{settings: bbopt.DefaultSettings()}
	for _, option := range append(options, defaults...) {
		if err := option(&o); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

type Option func(o *optimizer) error

func WithSettings(s bbopt.Settings) Option {
	return func(o *optimizer) error {
		o.settings = s
		return nil
	}
}

// WithLayout sets the decision vector layout. Without it every coordinate
// of the root box is a user variable.
func WithLayout(l bbopt.Layout) Option {
	return func(o *optimizer) error {
		if l.UserDim <= 0 {
			return bbopt.ErrEmptyBox
		}
		o.layout = &l
		return nil
	}
}

func WithExtensions(e bbopt.Extensions) Option {
	return func(o *optimizer) error {
		o.ext = e
		return nil
	}
}

func WithTracer(t bbopt.Tracer) Option {
	return func(o *optimizer) error {
		o.tracer = t
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *optimizer) error {
		o.logger = l
		return nil
	}
}

// WithNodeValidation checks node invariants after every iteration and
// aborts the search on the first violation.
func WithNodeValidation() Option {
	return func(o *optimizer) error {
		o.validate = true
		return nil
	}
}

var defaults = []Option{
	func(o *optimizer) error {
		if o.ext == nil {
			return bbopt.ErrNoExtensions
		}
		return nil
	},
	func(o *optimizer) error {
		if o.tracer == nil {
			o.tracer = DefaultTracer{}
		}
		return nil
	},
	func(o *optimizer) error {
		if o.logger == nil {
			o.logger = slog.New(slog.DiscardHandler)
		}
		return nil
	},
}
