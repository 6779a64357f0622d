// internal/models/preferences.go
package models

// PatientPreferences is a single client's matching query.
// Gender, ethnicity and religion accept either a value or NoPreference.
type PatientPreferences struct {
	AreaOfConcern      []string `json:"areaOfConcern"`
	TreatmentModality  []string `json:"treatmentModality"`
	Location           string   `json:"location"`
	TherapistGender    string   `json:"therapistGender"`
	TherapistEthnicity string   `json:"therapistEthnicity"`
	TherapistReligion  string   `json:"therapistReligion"`
	Language           string   `json:"language"`
	PaymentMethod      string   `json:"paymentMethod"`
	Availability       []string `json:"availability"`
}
