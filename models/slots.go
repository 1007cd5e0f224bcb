package models

// TimeSlot is one offered appointment time on a given day.
type TimeSlot struct {
	Time        string  `json:"time"` // "15:04"
	IsAvailable bool    `json:"isAvailable"`
	Surcharge   float64 `json:"surcharge,omitempty"`
	Reason      string  `json:"reason,omitempty"` // why the surcharge applies
}

// Availability is the slot list for one (date, treatment, duration) tuple,
// optionally with an advisory working-hours note.
type Availability struct {
	Slots []TimeSlot `json:"slots"`
	Note  string     `json:"note,omitempty"`
}

// FirstAvailable returns the first slot flagged available, or nil.
func (a Availability) FirstAvailable() *TimeSlot {
	for i := range a.Slots {
		if a.Slots[i].IsAvailable {
			return &a.Slots[i]
		}
	}
	return nil
}
