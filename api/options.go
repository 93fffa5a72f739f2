// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/vespa-engine/vespa-sub064/optimize"
	"github.com/vespa-engine/vespa-sub064/value"
)

type (
	// Option configures the compilation of a function.
	Option interface {
		// Name of the option.
		Name() string
	}

	withoutOptimizer struct{}

	withRules struct {
		names []string
	}

	withFactory struct {
		factory value.Factory
	}

	withTracer struct {
		tracer optimize.Tracer
	}
)

func (withoutOptimizer) Name() string { return "without_optimizer" }

func (withRules) Name() string { return "rules" }

func (withFactory) Name() string { return "factory" }

func (withTracer) Name() string { return "tracer" }

// WithoutOptimizer compiles the tree with generic routines only.
func WithoutOptimizer() Option {
	return withoutOptimizer{}
}

// WithRules restricts the optimizer to the rules with the given names.
func WithRules(names ...string) Option {
	return withRules{names: names}
}

// WithFactory sets the factory building the values created by evaluations.
func WithFactory(f value.Factory) Option {
	return withFactory{factory: f}
}

// WithTracer reports the rewrites of the optimizer to a tracer.
func WithTracer(t optimize.Tracer) Option {
	return withTracer{tracer: t}
}

// WithLogger logs the rewrites of the optimizer at debug level.
func WithLogger(logger *slog.Logger) Option {
	return withTracer{tracer: NewLogTracer(logger)}
}

type config struct {
	rules   *optimize.Rules
	factory value.Factory
	tracers []optimize.Tracer
}

func processOptions(options []Option) (*config, error) {
	cfg := &config{rules: optimize.Standard(), factory: value.Fast}
	optimizer := true
	var names []string
	for _, option := range options {
		switch optionT := option.(type) {
		case withoutOptimizer:
			optimizer = false
		case withRules:
			names = append(names, optionT.names...)
		case withFactory:
			if optionT.factory == nil {
				return nil, errors.Errorf("option %s: nil factory", optionT.Name())
			}
			cfg.factory = optionT.factory
		case withTracer:
			if optionT.tracer != nil {
				cfg.tracers = append(cfg.tracers, optionT.tracer)
			}
		default:
			return nil, errors.Errorf("option of type %T not supported", optionT)
		}
	}
	if !optimizer {
		cfg.rules = nil
		return cfg, nil
	}
	if names != nil {
		rules, err := cfg.rules.Select(names...)
		if err != nil {
			return nil, err
		}
		cfg.rules = rules
	}
	return cfg, nil
}

func (cfg *config) tracer() optimize.Tracer {
	switch len(cfg.tracers) {
	case 0:
		return nil
	case 1:
		return cfg.tracers[0]
	}
	return tracers(cfg.tracers)
}
