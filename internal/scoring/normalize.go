package scoring

import "math"

// Sub-score caps.
const (
	maxSubScore   = 100.0
	maxMultiplier = 30.0
)

// Technical scores GitHub output and LeetCode problem solving on [0,100].
func Technical(gh GitHubStats, lc LeetCodeStats) float64 {
	commits := math.Min(50, float64(gh.TotalCommits)/100)
	repos := math.Min(15, float64(gh.PublicRepos)/2)
	stars := math.Min(25, float64(gh.TotalStars)/20)

	solved := 0.1*float64(lc.EasySolved) + 0.3*float64(lc.MediumSolved) + 0.6*float64(lc.HardSolved)
	leetcode := math.Min(30, solved)

	return clamp(commits+repos+stars+leetcode, 0, maxSubScore)
}

// Creativity scores language diversity, the AI quality metrics and repository
// quality on [0,100].
func Creativity(gh GitHubStats, ai AIEvaluation) float64 {
	diversity := math.Min(20, 3*float64(gh.LanguageCount()))

	originality := ai.ProjectOriginality / 100 * 25
	innovation := ai.InnovationScore / 100 * 20
	codeQuality := ai.CodeQuality / 100 * 15

	quality := math.Min(20, gh.RepoQualityScore/5)

	return clamp(diversity+originality+innovation+codeQuality+quality, 0, maxSubScore)
}

// Social scores GitHub reach and Stack Overflow standing on [0,100].
func Social(gh GitHubStats, so StackOverflowStats) float64 {
	followers := math.Min(30, float64(gh.Followers)/10)
	contributions := math.Min(20, float64(gh.Contributions)/200)

	reputation := math.Min(35, float64(so.Reputation)/1000)
	answers := math.Min(15, 0.3*float64(so.Answers))

	return clamp(followers+contributions+reputation+answers, 0, maxSubScore)
}

// bonus is one gated multiplier condition.
type bonus struct {
	points float64
	met    func(gh GitHubStats, lc LeetCodeStats, so StackOverflowStats, ai AIEvaluation) bool
}

// bonuses lists the consistency, innovation and excellence groups in order.
// Every threshold is strict.
var bonuses = []bonus{
	// consistency
	{3, func(gh GitHubStats, _ LeetCodeStats, _ StackOverflowStats, _ AIEvaluation) bool {
		return gh.TotalCommits > 500
	}},
	{3, func(gh GitHubStats, _ LeetCodeStats, _ StackOverflowStats, _ AIEvaluation) bool {
		return gh.PublicRepos > 10
	}},
	{4, func(gh GitHubStats, lc LeetCodeStats, so StackOverflowStats, _ AIEvaluation) bool {
		return gh.TotalStars > 0 && lc.TotalSolved > 0 && so.Reputation > 100
	}},

	// innovation
	{4, func(_ GitHubStats, _ LeetCodeStats, _ StackOverflowStats, ai AIEvaluation) bool {
		return ai.InnovationScore > 70
	}},
	{3, func(_ GitHubStats, _ LeetCodeStats, _ StackOverflowStats, ai AIEvaluation) bool {
		return ai.ProjectOriginality > 70
	}},
	{3, func(gh GitHubStats, _ LeetCodeStats, _ StackOverflowStats, _ AIEvaluation) bool {
		return gh.LanguageCount() > 5
	}},

	// excellence
	{4, func(gh GitHubStats, _ LeetCodeStats, _ StackOverflowStats, _ AIEvaluation) bool {
		return gh.TotalStars > 100
	}},
	{3, func(_ GitHubStats, _ LeetCodeStats, so StackOverflowStats, _ AIEvaluation) bool {
		return so.Reputation > 5000
	}},
	{3, func(_ GitHubStats, lc LeetCodeStats, _ StackOverflowStats, _ AIEvaluation) bool {
		return lc.TotalSolved > 200
	}},
}

// Multiplier sums the awarded bonus points, capped at 30. The result is always
// a whole number.
func Multiplier(gh GitHubStats, lc LeetCodeStats, so StackOverflowStats, ai AIEvaluation) float64 {
	var total float64
	for _, b := range bonuses {
		if b.met(gh, lc, so, ai) {
			total += b.points
		}
	}
	return math.Min(maxMultiplier, total)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
