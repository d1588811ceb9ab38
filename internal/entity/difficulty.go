package entity

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func IsValidDifficulty(d string) bool {
	switch Difficulty(d) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Polarity groups emotions by how they steer game difficulty.
type Polarity int

const (
	PolarityNeutral Polarity = iota
	PolarityPositive
	PolarityNegative
)

func PolarityOf(e Emotion) Polarity {
	switch e {
	case EmotionHappy:
		return PolarityPositive
	case EmotionSad, EmotionAngry, EmotionFear:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// RecordedSample is a stored sample together with the difficulty the next
// round should use.
type RecordedSample struct {
	Sample            EmotionSample
	NextDifficulty    Difficulty
	DifficultyChanged bool
}
