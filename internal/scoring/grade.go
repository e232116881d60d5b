package scoring

// Grade is the discrete tier for a total.
type Grade struct {
	Grade       string `json:"grade"`
	Tier        string `json:"tier"`
	Color       string `json:"color"`
	Description string `json:"description"`

	// NextTierAt is the total that reaches the next tier; nil at the top.
	NextTierAt       *float64 `json:"nextTierAt,omitempty"`
	PointsToNextTier float64  `json:"pointsToNextTier"`
}

type tier struct {
	min         float64
	grade       string
	name        string
	color       string
	description string
}

// tiers is evaluated top-down; the first entry whose min is reached wins.
var tiers = []tier{
	{90, "S+", "Legendary", "#FFD700", "You are among the elite developers in the world! Outstanding achievements across all metrics."},
	{80, "S", "Master", "#FF6B6B", "Exceptional skills and contributions. You are a true expert in your field."},
	{70, "A", "Expert", "#A855F7", "Highly proficient with impressive achievements and consistent contributions."},
	{60, "B", "Advanced", "#3B82F6", "Strong technical skills with solid project portfolio and active engagement."},
	{50, "C", "Intermediate", "#10B981", "Growing developer with good foundation and regular contributions."},
	{40, "D", "Developing", "#F59E0B", "On the right path! Keep building and contributing to improve your aura."},
}

var beginner = tier{0, "E", "Beginner", "#6B7280", "Just getting started. Focus on building projects and contributing to open source."}

// GradeFor maps a total to its grade.
func GradeFor(total float64) Grade {
	t, next := beginner, &tiers[len(tiers)-1]
	for i := range tiers {
		if total >= tiers[i].min {
			t = tiers[i]
			next = nil
			if i > 0 {
				next = &tiers[i-1]
			}
			break
		}
	}

	g := Grade{
		Grade:       t.grade,
		Tier:        t.name,
		Color:       t.color,
		Description: t.description,
	}
	if next != nil {
		at := next.min
		g.NextTierAt = &at
		g.PointsToNextTier = Round1(at - total)
	}
	return g
}
