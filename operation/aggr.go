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

package operation

import "math"

// Aggr is an aggregator reducing cells into one.
type Aggr int

// Aggregators supported by reductions.
const (
	Sum Aggr = iota
	Prod
	Count
	Avg
	MaxAggr
	MinAggr
)

var aggrNames = map[Aggr]string{
	Sum:     "sum",
	Prod:    "prod",
	Count:   "count",
	Avg:     "avg",
	MaxAggr: "max",
	MinAggr: "min",
}

// String returns the name of the aggregator.
func (a Aggr) String() string {
	if name, ok := aggrNames[a]; ok {
		return name
	}
	return "invalid"
}

// AggrByName returns an aggregator given its name.
func AggrByName(name string) (Aggr, bool) {
	for aggr, n := range aggrNames {
		if n == name {
			return aggr, true
		}
	}
	return Sum, false
}

// Fold computes an aggregator by folding cells into an accumulated value.
// Reductions select the fold of their aggregator once, when compiled.
type Fold struct {
	// Init is the accumulated value before the first cell.
	Init float64
	// Add folds a cell into the accumulated value.
	Add func(acc, x float64) float64
	// Result returns the aggregate of n cells folded into acc.
	// The aggregate of no cell is 0.
	Result func(acc float64, n int) float64
}

func folded(acc float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return acc
}

var folds = [...]Fold{
	Sum: {
		Add:    func(acc, x float64) float64 { return acc + x },
		Result: folded,
	},
	Prod: {
		Init:   1,
		Add:    func(acc, x float64) float64 { return acc * x },
		Result: folded,
	},
	Count: {
		Add:    func(acc, _ float64) float64 { return acc },
		Result: func(_ float64, n int) float64 { return float64(n) },
	},
	Avg: {
		Add: func(acc, x float64) float64 { return acc + x },
		Result: func(acc float64, n int) float64 {
			if n == 0 {
				return 0
			}
			return acc / float64(n)
		},
	},
	MaxAggr: {
		Init:   math.Inf(-1),
		Add:    math.Max,
		Result: folded,
	},
	MinAggr: {
		Init:   math.Inf(1),
		Add:    math.Min,
		Result: folded,
	},
}

// Fold returns the fold computing the aggregator.
func (a Aggr) Fold() Fold {
	return folds[a]
}

// Aggregate folds a list of cells.
func (a Aggr) Aggregate(cells []float64) float64 {
	fold := folds[a]
	acc := fold.Init
	for _, x := range cells {
		acc = fold.Add(acc, x)
	}
	return fold.Result(acc, len(cells))
}
