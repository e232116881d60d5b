// Package scoring implements the Developer Aura Index: per-source stat
// normalizers, the bonus multiplier, the weighted composer and grade tiers.
//
// Everything in this package is pure. Callers own fetching, persistence and
// caching.
package scoring

// GitHubStats holds the GitHub signals used by the technical, creativity and
// social sub-scores.
type GitHubStats struct {
	Username         string         `json:"username"`
	Followers        int            `json:"followers"`
	PublicRepos      int            `json:"publicRepos"`
	TotalStars       int            `json:"totalStars"`
	TotalCommits     int            `json:"totalCommits"`
	Contributions    int            `json:"contributions"`
	TopLanguages     map[string]int `json:"topLanguages"`
	RepoQualityScore float64        `json:"repoQualityScore"`
}

// LanguageCount returns the number of distinct languages.
func (g GitHubStats) LanguageCount() int {
	return len(g.TopLanguages)
}

// LeetCodeStats holds solved-problem counts. TotalSolved is authoritative
// wherever a total is needed; the difficulty split is only used for weighting.
type LeetCodeStats struct {
	Username     string `json:"username"`
	TotalSolved  int    `json:"totalSolved"`
	EasySolved   int    `json:"easySolved"`
	MediumSolved int    `json:"mediumSolved"`
	HardSolved   int    `json:"hardSolved"`
	Rating       int    `json:"rating"`
	Ranking      int    `json:"ranking"`
}

// Badges counts Stack Overflow badges by class.
type Badges struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

// StackOverflowStats holds reputation and activity counts.
type StackOverflowStats struct {
	UserID     string `json:"userId"`
	Reputation int    `json:"reputation"`
	Badges     Badges `json:"badges"`
	Answers    int    `json:"answers"`
	Questions  int    `json:"questions"`
}

// AIEvaluation carries four independent quality metrics, each in [0,100].
type AIEvaluation struct {
	ProjectOriginality   float64 `json:"projectOriginality"`
	DocumentationQuality float64 `json:"documentationQuality"`
	CodeQuality          float64 `json:"codeQuality"`
	InnovationScore      float64 `json:"innovationScore"`
}

// Components are the clamped sub-scores and the bonus multiplier.
type Components struct {
	Technical  float64 `json:"technical"`
	Creativity float64 `json:"creativity"`
	Social     float64 `json:"social"`
	Multiplier float64 `json:"multiplier"`
}

// Breakdown retains the raw inputs a score was computed from.
type Breakdown struct {
	GitHub        GitHubStats        `json:"github"`
	LeetCode      LeetCodeStats      `json:"leetcode"`
	StackOverflow StackOverflowStats `json:"stackOverflow"`
	AI            AIEvaluation       `json:"ai"`
}

// Score is a composed Developer Aura Index.
type Score struct {
	Total      float64    `json:"total"`
	Components Components `json:"components"`
	Breakdown  Breakdown  `json:"breakdown"`
	Rank       *int       `json:"rank,omitempty"`
	Percentile *float64   `json:"percentile,omitempty"`

	// Provisional is set when at least one source fell back to its zero
	// vector after failing.
	Provisional     bool     `json:"provisional"`
	DegradedSources []string `json:"degradedSources,omitempty"`
}

// WithRank returns a copy of s carrying rank and percentile out of n ranked
// developers.
func (s Score) WithRank(rank, n int) Score {
	r := rank
	p := Percentile(rank, n)
	s.Rank = &r
	s.Percentile = &p
	return s
}
