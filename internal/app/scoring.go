package app

import (
	"fmt"

	"scamslayer-service/internal/domain"
)

// XPPerLevel is the XP width of every level.
const XPPerLevel = 500

// ComputeScore counts correct answers over every question in the scenario.
// A scenario without questions is rejected instead of producing a division by zero.
func ComputeScore(scenario domain.Scenario, answers domain.Answers) (domain.Score, error) {
	score := domain.Score{}
	for _, q := range scenario.Questions() {
		score.Total++
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectAnswerID {
			score.Correct++
		}
	}
	if score.Total == 0 {
		return domain.Score{}, fmt.Errorf("%w: scenario %d has no questions", domain.ErrInvalidScenario, scenario.ID)
	}
	score.Percentage = roundPercent(score.Correct, score.Total)
	return score, nil
}

// roundPercent is round(100*n/d) with halves rounded up. d must be positive.
func roundPercent(n, d int) int {
	return (200*n + d) / (2 * d)
}

// LevelForXP derives the level from cumulative XP: floor(xp/500)+1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// LevelProgress describes how far a profile is into its current level.
type LevelProgress struct {
	Level       int `json:"level"`
	XP          int `json:"xp"`
	LevelStart  int `json:"levelStartXp"`
	NextLevelAt int `json:"nextLevelXp"`
	Percent     int `json:"percent"`
}

// ProgressFor computes the level bar shown next to a profile.
func ProgressFor(xp int) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	start := (level - 1) * XPPerLevel
	return LevelProgress{
		Level:       level,
		XP:          xp,
		LevelStart:  start,
		NextLevelAt: level * XPPerLevel,
		Percent:     roundPercent(xp-start, XPPerLevel),
	}
}
