package neat

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes the fitness of one evaluated generation.
type GenerationStats struct {
	Generation int
	Size       int
	Best       float64
	Worst      float64
	Mean       float64
	Stdev      float64
	Median     float64
	MaxHidden  int
	MaxEdges   int
}

// ComputeStats summarizes the fitness and size of networks.
func ComputeStats(generation int, networks []*Network) GenerationStats {
	s := GenerationStats{Generation: generation, Size: len(networks)}
	if len(networks) == 0 {
		s.Best, s.Worst, s.Mean, s.Stdev, s.Median = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	fitnesses := make([]float64, len(networks))
	for i, n := range networks {
		fitnesses[i] = float64(n.Fitness)
		if h := n.HiddenCount(); h > s.MaxHidden {
			s.MaxHidden = h
		}
		if e := len(n.Edges); e > s.MaxEdges {
			s.MaxEdges = e
		}
	}
	s.Best = floats.Max(fitnesses)
	s.Worst = floats.Min(fitnesses)
	s.Mean = stat.Mean(fitnesses, nil)
	if len(fitnesses) > 1 {
		s.Stdev = stat.StdDev(fitnesses, nil)
	}
	s.Median = Median(fitnesses)
	return s
}

// String returns a one-line report of the stats.
func (s GenerationStats) String() string {
	return fmt.Sprintf("Generation %d: size %d, best %.0f, worst %.0f, mean %.2f, stdev %.2f, median %.1f, max hidden %d, max edges %d",
		s.Generation, s.Size, s.Best, s.Worst, s.Mean, s.Stdev, s.Median, s.MaxHidden, s.MaxEdges)
}

// Median returns the middle value of values, averaging the two middle values
// of an even-sized sample. It is NaN for an empty sample.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lower := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	upper := stat.Quantile(math.Nextafter(0.5, 1), stat.Empirical, sorted, nil)
	return (lower + upper) / 2
}
