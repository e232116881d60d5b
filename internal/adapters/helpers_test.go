package adapters

import "github.com/xthxr/DevAura/internal/scoring"

func sampleStats() scoring.GitHubStats {
	return scoring.GitHubStats{
		Username:     "octo",
		PublicRepos:  12,
		TotalStars:   300,
		Followers:    50,
		TopLanguages: map[string]int{"Rust": 2, "Go": 5},
	}
}
