package ga

import "github.com/hydronet/optinet/pkg/utils"

// SelRoulette draws n individuals with replacement, weighting each by
// its reflected fitness (worst+best)-f so that cheaper networks get
// larger wheel slices. When every fitness is equal the wheel is
// uniform. All inputs must be evaluated.
func SelRoulette(rng *utils.RandSource, population []*Individual, n int) []*Individual {
	worst, best := population[0].Fitness, population[0].Fitness
	for _, ind := range population[1:] {
		if ind.Fitness > worst {
			worst = ind.Fitness
		}
		if ind.Fitness < best {
			best = ind.Fitness
		}
	}

	weights := make([]float64, len(population))
	total := 0.0
	for i, ind := range population {
		weights[i] = worst + best - ind.Fitness
		total += weights[i]
	}

	chosen := make([]*Individual, 0, n)
	for len(chosen) < n {
		if total <= 0 {
			chosen = append(chosen, population[rng.Intn(len(population))])
			continue
		}
		spin := rng.Float64() * total
		acc := 0.0
		picked := population[len(population)-1]
		for i, w := range weights {
			acc += w
			if spin < acc {
				picked = population[i]
				break
			}
		}
		chosen = append(chosen, picked)
	}
	return chosen
}

// CxTwoPoint swaps the genome segment between two random cut points of
// both parents in place and clears their cached fitness. The parents
// must have equal genome lengths.
func CxTwoPoint(rng *utils.RandSource, a, b *Individual) {
	size := len(a.Genome)
	if size < 2 {
		return
	}

	p1 := rng.Intn(size)
	p2 := rng.Intn(size - 1)
	if p2 >= p1 {
		p2++
	} else {
		p1, p2 = p2, p1
	}

	for i := p1; i < p2; i++ {
		a.Genome[i], b.Genome[i] = b.Genome[i], a.Genome[i]
	}
	a.Invalidate()
	b.Invalidate()
}

// MutShuffleIndexes swaps each gene with another random position with
// probability indpb. The multiset of genes is preserved; only their
// order changes. The fitness cache is cleared when any swap happened.
func MutShuffleIndexes(rng *utils.RandSource, ind *Individual, indpb float64) {
	size := len(ind.Genome)
	if size < 2 {
		return
	}

	mutated := false
	for i := 0; i < size; i++ {
		if !rng.BernoulliBool(indpb) {
			continue
		}
		j := rng.Intn(size - 1)
		if j >= i {
			j++
		}
		ind.Genome[i], ind.Genome[j] = ind.Genome[j], ind.Genome[i]
		mutated = true
	}
	if mutated {
		ind.Invalidate()
	}
}
