// Package optim searches controller settings for the lowest response cost.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/loopsim/internal/dynamo"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/logging"
)

var ErrNoFeasiblePoint = errors.New("optim: no grid point produced a finite cost")

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Cost   float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Builder creates an experiment for one set of parameter values.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

// Search evaluates every grid point and returns the one with the lowest
// metric. Points that fail to build or run, or score +Inf, are skipped but
// reported in the returned slice.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) (map[string]float64, float64, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var points []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &best, &bestParams, &points)
	if err != nil {
		return nil, 0, points, err
	}
	if bestParams == nil {
		return nil, 0, points, ErrNoFeasiblePoint
	}
	return bestParams, best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build Builder,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return dynamo.Canceled(err)
	}

	if depth == len(g.paramNames) {
		point := Point{Params: current, Cost: math.Inf(1)}
		point.Cost, point.Err = evaluate(ctx, build, current, metricName)
		*points = append(*points, point)

		if errors.Is(point.Err, dynamo.ErrCanceled) {
			return point.Err
		}
		logr.FromContextOrDiscard(ctx).V(logging.VERBOSE).Info("grid point", "params", current, "cost", point.Cost, "error", point.Err)

		if point.Err == nil && point.Cost < *best {
			*best = point.Cost
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, build, metricName, best, bestParams, points); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, build Builder, params map[string]float64, metricName string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return math.Inf(1), err
	}
	if err := exp.Setup(); err != nil {
		return math.Inf(1), err
	}
	out, err := exp.Run(ctx)
	if err != nil {
		return math.Inf(1), err
	}
	return out.Report.Lookup(metricName)
}
