package questions

// Difficulty is one selectable difficulty level.
type Difficulty struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func Topics() []string {
	return []string{
		"Science",
		"History",
		"Geography",
		"Technology",
		"Sports",
		"Art",
		"Literature",
		"Mathematics",
		"Biology",
		"Chemistry",
		"Physics",
		"Astronomy",
		"Music",
		"Film",
		"Video Games",
	}
}

func DifficultyLevels() []Difficulty {
	return []Difficulty{
		{Value: "easy", Label: "Easy"},
		{Value: "medium", Label: "Medium"},
		{Value: "hard", Label: "Hard"},
	}
}

// ValidDifficulty accepts an empty value, meaning any difficulty.
func ValidDifficulty(value string) bool {
	if value == "" {
		return true
	}
	for _, level := range DifficultyLevels() {
		if level.Value == value {
			return true
		}
	}
	return false
}
