// Package cost computes the penalized construction cost of a diameter
// assignment against hydraulic feasibility bounds.
package cost

import (
	"context"
	"fmt"

	"github.com/hydronet/optinet/internal/catalog"
	"github.com/hydronet/optinet/internal/hydraulic"
)

// Options are the feasibility bounds and the penalty increment applied
// per violating entity.
type Options struct {
	HMin        float64 // minimum junction pressure, m
	HMax        float64 // maximum junction pressure, m
	VMin        float64 // minimum pipe velocity, m/s
	VMax        float64 // maximum pipe velocity, m/s
	PenaltyStep float64 // multiplier increment per violation
}

// DefaultOptions returns the bounds used by the two-loop benchmark.
func DefaultOptions() Options {
	return Options{
		HMin:        30,
		HMax:        100,
		VMin:        0.25,
		VMax:        2.50,
		PenaltyStep: 1,
	}
}

// Result is one evaluated assignment broken down by component. Cost is
// the fitness value: material cost times both penalty multipliers.
type Result struct {
	Cost               float64
	MaterialCost       float64
	PressurePenalty    float64
	VelocityPenalty    float64
	PressureViolations int
	VelocityViolations int
}

// Feasible reports whether the assignment violated no bound.
func (r Result) Feasible() bool {
	return r.PressureViolations == 0 && r.VelocityViolations == 0
}

// Evaluator scores diameter assignments on one network session. It is
// bound to a single Network and therefore not safe for concurrent use;
// Pool hands out one Evaluator per in-flight evaluation.
type Evaluator struct {
	net  *hydraulic.Network
	cat  *catalog.Catalog
	opts Options
}

// NewEvaluator binds an evaluator to an open, initialized network
// session and a price catalog.
func NewEvaluator(net *hydraulic.Network, cat *catalog.Catalog, opts Options) *Evaluator {
	return &Evaluator{net: net, cat: cat, opts: opts}
}

// EvaluateIndexes resolves a genome of catalog indexes to diameters
// and evaluates the assignment. An index outside the catalog fails
// before any solver work.
func (e *Evaluator) EvaluateIndexes(ctx context.Context, genome []int) (Result, error) {
	diameters := make([]float64, len(genome))
	for i, index := range genome {
		d, err := e.cat.IndexToDiameter(index)
		if err != nil {
			return Result{}, fmt.Errorf("failed to resolve gene %d: %w", i, err)
		}
		diameters[i] = d
	}
	return e.EvaluateAssignment(ctx, diameters)
}

// EvaluateAssignment writes the diameters into the network, runs one
// simulation and scores the first hydraulic period. Both penalty
// multipliers start at one; each bound violation adds PenaltyStep, so
// a fully feasible network pays exactly its material cost.
func (e *Evaluator) EvaluateAssignment(ctx context.Context, diameters []float64) (Result, error) {
	if err := e.net.SetDiameters(diameters); err != nil {
		return Result{}, err
	}

	snapshot, err := e.net.RunSimulation(ctx)
	if err != nil {
		return Result{}, err
	}
	period, ok := snapshot.First()
	if !ok {
		return Result{}, fmt.Errorf("simulation produced no hydraulic periods")
	}

	result := Result{PressurePenalty: 1, VelocityPenalty: 1}

	for _, node := range period.Nodes {
		if node.Type.IsSource() {
			continue
		}
		if node.Pressure < e.opts.HMin || node.Pressure > e.opts.HMax {
			result.PressureViolations++
			result.PressurePenalty += e.opts.PenaltyStep
		}
	}

	for i, link := range period.Links {
		if link.Velocity < e.opts.VMin || link.Velocity > e.opts.VMax {
			result.VelocityViolations++
			result.VelocityPenalty += e.opts.PenaltyStep
		}

		price, err := e.cat.UnitPrice(diameters[i])
		if err != nil {
			return Result{}, fmt.Errorf("failed to price link %s: %w", link.ID, err)
		}
		result.MaterialCost += price * link.Length
	}

	result.Cost = result.MaterialCost * result.PressurePenalty * result.VelocityPenalty
	return result, nil
}

// Close releases the underlying network session.
func (e *Evaluator) Close() error {
	return e.net.Close()
}
