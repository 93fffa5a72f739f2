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

	"github.com/vespa-engine/vespa-sub064/optimize"
	"github.com/vespa-engine/vespa-sub064/tree"
)

type logTracer struct {
	logger *slog.Logger
}

// NewLogTracer returns a tracer logging every rewrite of the optimizer as a
// debug record.
func NewLogTracer(logger *slog.Logger) optimize.Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return logTracer{logger: logger}
}

func (t logTracer) Rewrite(rule string, before, after tree.Node) {
	t.logger.Debug("optimizer rewrite",
		slog.String("rule", rule),
		slog.String("before", before.String()),
		slog.String("after", after.String()),
	)
}

type tracers []optimize.Tracer

func (ts tracers) Rewrite(rule string, before, after tree.Node) {
	for _, t := range ts {
		t.Rewrite(rule, before, after)
	}
}
