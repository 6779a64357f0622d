// internal/models/match.go
package models

type ScoreBreakdown struct {
	Specialty    int `json:"specialty"`
	Payment      int `json:"payment"`
	Availability int `json:"availability"`
	Gender       int `json:"gender"`
	Language     int `json:"language"`
	Ethnicity    int `json:"ethnicity"`
	Religion     int `json:"religion"`
	Modality     int `json:"modality"`
	Location     int `json:"location"`
}

func (b ScoreBreakdown) Total() int {
	return b.Specialty + b.Payment + b.Availability + b.Gender +
		b.Language + b.Ethnicity + b.Religion + b.Modality + b.Location
}

type MatchResult struct {
	Provider
	MatchScore int            `json:"matchScore"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}
