// Package ga implements a generational genetic algorithm over integer
// genomes with roulette selection, two-point crossover and per-gene
// shuffle mutation.
package ga

import "github.com/hydronet/optinet/pkg/utils"

// Individual is one candidate solution. Genome holds catalog indexes;
// Fitness is only meaningful while Evaluated is true. Operators that
// change the genome must clear Evaluated so the stale fitness is never
// reused.
type Individual struct {
	Genome    []int
	Fitness   float64
	Evaluated bool
}

// NewRandomIndividual draws a genome of length genes with every gene
// uniform over [0, bound).
func NewRandomIndividual(rng *utils.RandSource, genes, bound int) *Individual {
	genome := make([]int, genes)
	for i := range genome {
		genome[i] = rng.Intn(bound)
	}
	return &Individual{Genome: genome}
}

// Clone returns a deep copy; the copy shares no genome storage with
// the original.
func (ind *Individual) Clone() *Individual {
	genome := make([]int, len(ind.Genome))
	copy(genome, ind.Genome)
	return &Individual{
		Genome:    genome,
		Fitness:   ind.Fitness,
		Evaluated: ind.Evaluated,
	}
}

// Invalidate clears the cached fitness after a genome change.
func (ind *Individual) Invalidate() {
	ind.Fitness = 0
	ind.Evaluated = false
}
