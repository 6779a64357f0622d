// internal/models/provider.go
package models

const (
	NotSpecified = "Not specified"
	NoBio        = "No bio provided"
	NoPreference = "No preference"
)

type Demographics struct {
	Gender    string `json:"gender"`
	Ethnicity string `json:"ethnicity"`
	Religion  string `json:"religion"`
}

// Provider is a coaching professional that can be matched against a client.
// Location holds full region names; abbreviations are expanded at load time.
type Provider struct {
	Name              string       `json:"name"`
	Specialties       []string     `json:"specialties"`
	Modalities        []string     `json:"modalities"`
	Location          []string     `json:"location"`
	Demographics      Demographics `json:"demographics"`
	Availability      int          `json:"availability"`
	Languages         []string     `json:"languages"`
	Bio               string       `json:"bio"`
	SexualOrientation string       `json:"sexualOrientation"`
	AvailableTimes    []string     `json:"availableTimes"`
	PaymentMethods    []string     `json:"paymentMethods"`
}

// HasCapacity reports whether the provider can take on at least one more client.
func (p Provider) HasCapacity() bool {
	return p.Availability > 0
}

// Clone returns a deep copy so cached catalogs can be handed out safely.
func (p Provider) Clone() Provider {
	c := p
	c.Specialties = cloneStrings(p.Specialties)
	c.Modalities = cloneStrings(p.Modalities)
	c.Location = cloneStrings(p.Location)
	c.Languages = cloneStrings(p.Languages)
	c.AvailableTimes = cloneStrings(p.AvailableTimes)
	c.PaymentMethods = cloneStrings(p.PaymentMethods)
	return c
}

func CloneProviders(in []Provider) []Provider {
	if in == nil {
		return nil
	}
	out := make([]Provider, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
