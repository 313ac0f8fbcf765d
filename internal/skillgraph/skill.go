package skillgraph

// DifficultyTier buckets skills by how foundational they are.
type DifficultyTier string

const (
	TierFoundation DifficultyTier = "foundation"
	TierCore       DifficultyTier = "core"
	TierAdvanced   DifficultyTier = "advanced"
)

// Unit is a syllabus unit grouping related skills (e.g. "contracts",
// "evidence"). Exam weights of a unit's skills sum to 1.
type Unit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ExamWeight is the unit's declared share of the exam, used as a
	// tie-break when coverage debts are equal.
	ExamWeight float64 `json:"exam_weight"`
}

// Skill is a single node in the curriculum graph. Skills are authored at
// curriculum time and immutable at runtime except for deactivation.
type Skill struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	UnitID        string         `json:"unit_id"`
	ExamWeight    float64        `json:"exam_weight"`
	Tier          DifficultyTier `json:"tier"`
	Prerequisites []string       `json:"prerequisites"`
	IsActive      bool           `json:"is_active"`
}
