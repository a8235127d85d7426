package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary condenses an elite-fitness history.
type Summary struct {
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	BestMax     float64 `json:"best_max"`
	BestMin     float64 `json:"best_min"`
	Improvement float64 `json:"improvement"`
	// FirstBestGeneration is the 1-based generation that first reached BestMax.
	FirstBestGeneration int `json:"first_best_generation"`
}

// Summarize uses the population (not sample) standard deviation.
func Summarize(initialBest float64, history []float64) Summary {
	if len(history) == 0 {
		return Summary{InitialBest: initialBest, FinalBest: initialBest}
	}

	mean, std := stat.PopMeanStdDev(history, nil)
	if len(history) == 1 {
		// gonum divides by n-1 before rescaling, which is NaN for one value.
		std = 0
	}
	bestIdx := floats.MaxIdx(history)
	final := history[len(history)-1]
	return Summary{
		Generations:         len(history),
		InitialBest:         initialBest,
		FinalBest:           final,
		BestMean:            mean,
		BestStd:             std,
		BestMax:             history[bestIdx],
		BestMin:             floats.Min(history),
		Improvement:         final - initialBest,
		FirstBestGeneration: bestIdx + 1,
	}
}
