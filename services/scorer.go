package services

import (
	"strings"

	"wedmatch_server/models"
)

// Score weights. The maximum total is 100.
const (
	scoreOppositeGender = 30
	scoreAgeFit         = 20 // per direction
	scoreSameArea       = 15
	scoreSameReligious  = 15
)

// CompatibilityScore rates a pair of profiles. It is pure and symmetric in its age check.
func CompatibilityScore(u1, u2 *models.UserProfile) float64 {
	if u1 == nil || u2 == nil {
		return 0
	}
	score := 0
	if oppositeGender(u1.Gender, u2.Gender) {
		score += scoreOppositeGender
	}
	if ageFits(u1, u2) {
		score += scoreAgeFit
	}
	if ageFits(u2, u1) {
		score += scoreAgeFit
	}
	if sameTag(u1.Area, u2.Area) {
		score += scoreSameArea
	}
	if sameTag(u1.ReligiousLevel, u2.ReligiousLevel) {
		score += scoreSameReligious
	}
	return float64(score)
}

func normalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "m", "male", "man":
		return "male"
	case "f", "female", "woman":
		return "female"
	default:
		return ""
	}
}

func oppositeGender(a, b string) bool {
	ga, gb := normalizeGender(a), normalizeGender(b)
	return ga != "" && gb != "" && ga != gb
}

// ageFits reports whether candidate's age is inside seeker's preferred range. A seeker without
// a range accepts everyone; a candidate without an age never fits.
func ageFits(seeker, candidate *models.UserProfile) bool {
	if candidate.Age == nil {
		return false
	}
	age := *candidate.Age
	if seeker.PreferredAgeMin != nil && age < *seeker.PreferredAgeMin {
		return false
	}
	if seeker.PreferredAgeMax != nil && age > *seeker.PreferredAgeMax {
		return false
	}
	return true
}

func sameTag(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
