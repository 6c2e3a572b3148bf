package graph

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultDamping is the TextRank damping factor.
	DefaultDamping = 0.85
	// DefaultThreshold is the standard error below which propagation stops.
	DefaultThreshold = 0.005
)

// PropagateOptions tunes a propagation run. Zero values select defaults.
type PropagateOptions struct {
	MaxIterations int
	Damping       float64
	Threshold     float64
}

func (o PropagateOptions) withDefaults(size int) PropagateOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = size
	}
	if o.Damping <= 0 {
		o.Damping = DefaultDamping
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// PropagateResult reports how a propagation run ended.
type PropagateResult struct {
	Iterations    int
	StandardError float64
	Converged     bool
}

// Propagate runs weighted TextRank until the standard error of the rank
// deltas drops below the threshold or MaxIterations sweeps have run.
//
//	rank(n1) = (1-d) + d * Σ w(n2,n1)/Σ_k w(n2,k) * rank(n2)
//
// Each sweep reads a frozen copy of the ranks and writes a fresh slice.
// When it returns, every node's PreviousRank holds its rank from before
// the call.
func (g *Graph) Propagate(opts PropagateOptions) PropagateResult {
	size := len(g.nodes)
	if size == 0 {
		return PropagateResult{Converged: true}
	}
	opts = opts.withDefaults(size)

	before := make([]float64, size)
	for i, n := range g.nodes {
		before[i] = n.Rank
	}

	totals := make([]float64, size)
	next := make([]float64, size)
	deltas := make([]float64, size)

	var res PropagateResult
	for k := 0; k < opts.MaxIterations; k++ {
		for i := range g.nodes {
			totals[i] = g.TotalWeight(i)
		}

		for i, n1 := range g.nodes {
			sum := 0.0
			for _, j := range g.Neighbors(i) {
				if totals[j] == 0 {
					continue
				}
				n2 := g.nodes[j]
				sum += n2.edges[i] / totals[j] * n2.Rank
			}
			next[i] = (1 - opts.Damping) + opts.Damping*sum
			deltas[i] = math.Abs(n1.Rank - next[i])
		}

		res.Iterations = k + 1
		res.StandardError = standardError(deltas)

		for i, n := range g.nodes {
			n.Rank = next[i]
		}

		if res.StandardError < opts.Threshold {
			res.Converged = true
			break
		}
	}

	for i, n := range g.nodes {
		n.PreviousRank = before[i]
	}
	return res
}

// standardError is the sample standard deviation over √n. Fewer than two
// values have no spread.
func standardError(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil) / math.Sqrt(float64(len(values)))
}
