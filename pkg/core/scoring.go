package core

import (
	"math"
)

// ScoreWeight represents a weight for a specific category in a scoring algorithm
type ScoreWeight struct {
	Category string  // Name of the category
	Weight   float64 // Weight multiplier
}

// WeightedScore calculates a score based on counts and weights
// It returns a value between 0 and maxScore
func WeightedScore(counts map[string]int, weights []ScoreWeight, maxScore float64) int {
	if len(counts) == 0 || len(weights) == 0 {
		return 0
	}

	var score float64
	for _, w := range weights {
		if count, ok := counts[w.Category]; ok {
			score += float64(count) * w.Weight
		}
	}

	// Bound score between 0 and maxScore
	boundedScore := math.Min(score, maxScore)
	boundedScore = math.Max(boundedScore, 0)

	return int(math.Round(boundedScore))
}

// DistanceBiasedScore adjusts a base score based on distance
// The score decreases as distance increases
func DistanceBiasedScore(baseScore int, distance, maxDistance float64, maxScore float64) int {
	if distance <= 0 {
		return baseScore
	}

	// Normalize distance between 0 and 1
	normalizedDistance := math.Min(distance/maxDistance, 1.0)

	// Apply inverse effect (closer = higher score)
	distanceFactor := 1.0 - normalizedDistance

	// Calculate final score
	adjustedScore := float64(baseScore) * distanceFactor

	// Bound score between 0 and maxScore
	boundedScore := math.Min(adjustedScore, maxScore)
	boundedScore = math.Max(boundedScore, 0)

	return int(math.Round(boundedScore))
}
