package scoring

import "math"

// Sub-score weights. The multiplier is added unweighted.
const (
	WeightTechnical  = 0.45
	WeightCreativity = 0.35
	WeightSocial     = 0.20
)

// Compose computes the Developer Aura Index from the four input vectors.
//
// The total is rounded half-up to one decimal place and is not clamped: a
// perfect profile reaches 130.
func Compose(gh GitHubStats, lc LeetCodeStats, so StackOverflowStats, ai AIEvaluation) Score {
	c := Components{
		Technical:  Technical(gh, lc),
		Creativity: Creativity(gh, ai),
		Social:     Social(gh, so),
		Multiplier: Multiplier(gh, lc, so, ai),
	}

	total := c.Technical*WeightTechnical +
		c.Creativity*WeightCreativity +
		c.Social*WeightSocial +
		c.Multiplier

	return Score{
		Total:      Round1(total),
		Components: c,
		Breakdown: Breakdown{
			GitHub:        gh,
			LeetCode:      lc,
			StackOverflow: so,
			AI:            ai,
		},
	}
}

// Round1 rounds half-up to one decimal place.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Percentile is the share of n ranked developers at or below rank, on
// [0,100] with one decimal. Out-of-range input yields 0.
func Percentile(rank, n int) float64 {
	if n <= 0 || rank < 1 || rank > n {
		return 0
	}
	return Round1(100 * float64(n-rank+1) / float64(n))
}
