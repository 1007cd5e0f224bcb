package models

// PricingType distinguishes flat-priced treatments from duration-priced ones.
type PricingType string

const (
	PricingFixed         PricingType = "fixed"
	PricingDurationBased PricingType = "duration_based"
)

// TreatmentDuration is one bookable duration of a duration-priced treatment.
type TreatmentDuration struct {
	ID      string  `bson:"id" json:"id"`
	Minutes int     `bson:"minutes" json:"minutes"`
	Price   float64 `bson:"price" json:"price"`
	Active  bool    `bson:"active" json:"active"`
}

// Treatment is a catalogue entry.
type Treatment struct {
	ID          string              `bson:"id" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Category    string              `bson:"category,omitempty" json:"category,omitempty"`
	PricingType PricingType         `bson:"pricingType" json:"pricingType"`
	FixedPrice  float64             `bson:"fixedPrice,omitempty" json:"fixedPrice,omitempty"`
	Durations   []TreatmentDuration `bson:"durations,omitempty" json:"durations,omitempty"`
	Active      bool                `bson:"active" json:"active"`
}

// DurationByID returns the duration entry with the given id, or nil.
func (t *Treatment) DurationByID(id string) *TreatmentDuration {
	for i := range t.Durations {
		if t.Durations[i].ID == id {
			return &t.Durations[i]
		}
	}
	return nil
}

// ActiveDurations returns the currently bookable durations.
func (t *Treatment) ActiveDurations() []TreatmentDuration {
	var out []TreatmentDuration
	for _, d := range t.Durations {
		if d.Active {
			out = append(out, d)
		}
	}
	return out
}

// BasePriceFor resolves the treatment's base price for the selected duration.
func (t *Treatment) BasePriceFor(durationID string) float64 {
	if t.PricingType == PricingDurationBased {
		if d := t.DurationByID(durationID); d != nil {
			return d.Price
		}
		return 0
	}
	return t.FixedPrice
}
