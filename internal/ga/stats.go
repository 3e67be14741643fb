package ga

import "github.com/hydronet/optinet/pkg/utils"

// GenerationStats summarizes the fitness distribution of one
// generation. NumEvals counts only the individuals evaluated during
// that generation; cached fitness values cost nothing.
type GenerationStats struct {
	Generation int
	NumEvals   int
	Avg        float64
	Std        float64
	Min        float64
	Max        float64
}

// computeStats builds the fitness summary for an evaluated population.
func computeStats(generation, numEvals int, population []*Individual) GenerationStats {
	fitnesses := make([]float64, len(population))
	for i, ind := range population {
		fitnesses[i] = ind.Fitness
	}
	return GenerationStats{
		Generation: generation,
		NumEvals:   numEvals,
		Avg:        utils.Mean(fitnesses),
		Std:        utils.StdDev(fitnesses),
		Min:        utils.MinFloat64s(fitnesses),
		Max:        utils.MaxFloat64s(fitnesses),
	}
}
