package service

import (
	"strings"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Scoring weights for replacement faculty.
const (
	unavailablePenalty    = -1000
	expertiseExactBonus   = 50
	expertisePartialBonus = 30
	spareCapacityBonus    = 20
	overloadPenalty       = -200
	nameAffinityBonus     = 10

	bestScoreThreshold = 90
	goodScoreThreshold = 50
)

// ScoreCandidate rates how well a faculty member fits a course. Scores are not clamped;
// an unavailable candidate is driven far below any available one.
func ScoreCandidate(candidate models.FacultyWorkload, courseName string) int {
	score := 0
	if !candidate.Available {
		score += unavailablePenalty
	}

	score += expertiseScore(candidate.Expertise, courseName)

	if spare := candidate.SpareCapacity(); spare > 0 {
		score += spare * spareCapacityBonus
	}
	if candidate.CurrentWorkload >= candidate.WorkloadCap {
		score += overloadPenalty
	}

	name := strings.ToLower(strings.TrimSpace(candidate.Name))
	if name != "" && strings.Contains(strings.ToLower(courseName), name) {
		score += nameAffinityBonus
	}
	return score
}

// RankForScore labels a score.
func RankForScore(score int) models.CandidateRank {
	switch {
	case score >= bestScoreThreshold:
		return models.RankBest
	case score >= goodScoreThreshold:
		return models.RankGood
	default:
		return models.RankCompromise
	}
}

func expertiseScore(expertise, courseName string) int {
	expertiseTokens := make(map[string]struct{})
	for _, raw := range strings.Split(expertise, ",") {
		if token := strings.ToLower(strings.TrimSpace(raw)); token != "" {
			expertiseTokens[token] = struct{}{}
		}
	}
	if len(expertiseTokens) == 0 {
		return 0
	}

	courseTokens := make(map[string]struct{})
	for _, raw := range strings.Fields(courseName) {
		if len(raw) > 2 {
			courseTokens[strings.ToLower(raw)] = struct{}{}
		}
	}

	for token := range expertiseTokens {
		if _, ok := courseTokens[token]; ok {
			return expertiseExactBonus
		}
	}
	for et := range expertiseTokens {
		for ct := range courseTokens {
			if strings.Contains(ct, et) || strings.Contains(et, ct) {
				return expertisePartialBonus
			}
		}
	}
	return 0
}
