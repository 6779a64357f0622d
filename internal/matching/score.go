// internal/matching/score.go
package matching

import (
	"strings"

	"coach-matching/internal/models"
)

// Points per criterion. Specialty and time-slot points are per matching item.
const (
	SpecialtyPoints      = 5
	PaymentPoints        = 5
	TimeSlotPoints       = 5
	GenderPoints         = 5
	LanguagePoints       = 3
	EthnicityPoints      = 1
	ReligionPoints       = 1
	NoModalityPoints     = 1
	ExactRegionPoints    = 2
	NeighborRegionPoints = 1
)

// Score computes the breakdown for one provider. It does not look at
// availability; eligibility is decided by Match.
func (e *Engine) Score(prefs models.PatientPreferences, p models.Provider) models.ScoreBreakdown {
	concerns := nonBlank(prefs.AreaOfConcern)
	modalities := nonBlank(prefs.TreatmentModality)

	b := models.ScoreBreakdown{
		Specialty:    SpecialtyPoints * countContained(concerns, p.Specialties),
		Availability: TimeSlotPoints * countEqualFold(nonBlank(prefs.Availability), p.AvailableTimes),
		Gender:       demographicPoints(prefs.TherapistGender, p.Demographics.Gender, GenderPoints),
		Ethnicity:    demographicPoints(prefs.TherapistEthnicity, p.Demographics.Ethnicity, EthnicityPoints),
		Religion:     demographicPoints(prefs.TherapistReligion, p.Demographics.Religion, ReligionPoints),
		Location:     e.locationPoints(prefs.Location, p.Location),
	}

	// Payment labels compare case-sensitively.
	if containsExact(p.PaymentMethods, prefs.PaymentMethod) {
		b.Payment = PaymentPoints
	}

	if lang := strings.TrimSpace(prefs.Language); lang != "" && anyEqualFold(p.Languages, lang) {
		b.Language = LanguagePoints
	}

	if len(modalities) == 0 {
		b.Modality = NoModalityPoints
	} else {
		b.Modality = countContained(modalities, p.Modalities)
	}

	return b
}

func (e *Engine) locationPoints(requested string, locations []string) int {
	requested = strings.TrimSpace(requested)
	if requested == "" || len(locations) == 0 {
		return 0
	}

	want := e.expand(requested)
	for _, loc := range locations {
		if strings.EqualFold(e.expand(loc), want) {
			return ExactRegionPoints
		}
	}
	if e.geo == nil {
		return 0
	}
	for _, loc := range locations {
		if e.geo.IsNeighbor(requested, loc) {
			return NeighborRegionPoints
		}
	}
	return 0
}

func (e *Engine) expand(region string) string {
	if e.geo == nil {
		return strings.TrimSpace(region)
	}
	return e.geo.Expand(region)
}

func demographicPoints(pref, actual string, points int) int {
	if pref == models.NoPreference || (pref != "" && strings.EqualFold(pref, actual)) {
		return points
	}
	return 0
}

// countContained counts wanted items that are a case-insensitive substring of
// at least one of have.
func countContained(wanted, have []string) int {
	n := 0
	for _, w := range wanted {
		lw := strings.ToLower(w)
		for _, h := range have {
			if strings.Contains(strings.ToLower(h), lw) {
				n++
				break
			}
		}
	}
	return n
}

func countEqualFold(wanted, have []string) int {
	n := 0
	for _, w := range wanted {
		if anyEqualFold(have, w) {
			n++
		}
	}
	return n
}

func anyEqualFold(have []string, s string) bool {
	for _, h := range have {
		if strings.EqualFold(h, s) {
			return true
		}
	}
	return false
}

func containsExact(have []string, s string) bool {
	if s == "" {
		return false
	}
	for _, h := range have {
		if h == s {
			return true
		}
	}
	return false
}

// nonBlank trims items and drops the empty ones.
func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
