package optim

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/arena/internal/config"
	"github.com/san-kum/arena/internal/experiment"
)

// Trial is one point of the grid. Err is set when the point could not be
// configured or run; Value is then NaN.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch runs every combination of values for a set of dotted config
// paths (e.g. "physics.stiffness") and minimises one result metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search returns every trial in grid order and the index of the best one,
// or -1 when no trial succeeded.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) ([]Trial, int, error) {
	var trials []Trial
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, base, metricName, &trials); err != nil {
		return trials, -1, err
	}

	best := -1
	for i, tr := range trials {
		if tr.Err != nil {
			continue
		}
		if best < 0 || tr.Value < trials[best].Value {
			best = i
		}
	}
	return trials, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		value, err := g.evaluate(ctx, base, params, metricName)
		*trials = append(*trials, Trial{Params: params, Value: value, Err: err})
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, base, metricName, trials); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64, metricName string) (float64, error) {
	cfg := base.Clone()
	for _, name := range g.paramNames {
		if err := cfg.Set(name, strconv.FormatFloat(params[name], 'g', -1, 64)); err != nil {
			return math.NaN(), err
		}
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return math.NaN(), err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return math.NaN(), err
	}
	if len(result.Errors) > 0 {
		return math.NaN(), result.Errors[0]
	}

	val, ok := result.Metrics.Get(metricName)
	if !ok {
		return math.NaN(), fmt.Errorf("optim: unknown metric %q", metricName)
	}
	return val, nil
}
