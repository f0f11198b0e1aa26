package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wedmatch_server/models"
)

func profile(id int64, gender string, age int, min, max *int, area, religious string) *models.UserProfile {
	return &models.UserProfile{
		UserID:          id,
		Gender:          gender,
		Age:             intPtr(age),
		PreferredAgeMin: min,
		PreferredAgeMax: max,
		Area:            area,
		ReligiousLevel:  religious,
	}
}

func TestCompatibilityScorePerfectPair(t *testing.T) {
	a := profile(1, "male", 30, intPtr(25), intPtr(35), "Center", "secular")
	b := profile(2, "F", 28, intPtr(27), intPtr(33), "center ", "Secular")

	assert.Equal(t, 100.0, CompatibilityScore(a, b))
	assert.Equal(t, 100.0, CompatibilityScore(b, a))
}

func TestCompatibilityScoreComponents(t *testing.T) {
	tests := []struct {
		name string
		a, b *models.UserProfile
		want float64
	}{
		{
			name: "same gender, no ranges",
			a:    profile(1, "male", 30, nil, nil, "", ""),
			b:    profile(2, "m", 31, nil, nil, "", ""),
			want: 40,
		},
		{
			name: "one side out of range",
			a:    profile(1, "female", 30, intPtr(40), intPtr(50), "north", ""),
			b:    profile(2, "male", 30, nil, nil, "north", ""),
			want: 30 + 20 + 15,
		},
		{
			name: "unknown gender and missing ages",
			a:    &models.UserProfile{UserID: 1, Gender: "other", ReligiousLevel: "traditional"},
			b:    &models.UserProfile{UserID: 2, Gender: "female", ReligiousLevel: "traditional"},
			want: 15,
		},
		{
			name: "empty tags never match",
			a:    profile(1, "male", 30, intPtr(50), nil, "", ""),
			b:    profile(2, "female", 30, intPtr(50), nil, "", ""),
			want: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompatibilityScore(tt.a, tt.b))
		})
	}
}

func TestCompatibilityScoreNilProfiles(t *testing.T) {
	assert.Zero(t, CompatibilityScore(nil, profile(1, "male", 30, nil, nil, "", "")))
	assert.Zero(t, CompatibilityScore(profile(1, "male", 30, nil, nil, "", ""), nil))
}
