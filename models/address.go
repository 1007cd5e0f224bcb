package models

// AddressType categorizes the appointment location.
type AddressType string

const (
	AddressApartment AddressType = "apartment"
	AddressHouse     AddressType = "house"
	AddressOffice    AddressType = "office"
	AddressHotel     AddressType = "hotel"
	AddressOther     AddressType = "other"
)

// PartialAddress holds the appointment location for physical flows.
type PartialAddress struct {
	City        string      `json:"city,omitempty"`
	Street      string      `json:"street,omitempty"`
	HouseNumber string      `json:"houseNumber,omitempty"`
	AddressType AddressType `json:"addressType,omitempty"`
	Floor       string      `json:"floor,omitempty"`
	Apartment   string      `json:"apartment,omitempty"`
	Entrance    string      `json:"entrance,omitempty"`
	Parking     bool        `json:"parking,omitempty"`
	Notes       string      `json:"notes,omitempty"`

	// Type-specific details.
	DoorName     string `json:"doorName,omitempty"`     // house
	BuildingName string `json:"buildingName,omitempty"` // office
	HotelName    string `json:"hotelName,omitempty"`    // hotel
	RoomNumber   string `json:"roomNumber,omitempty"`   // hotel
	Instructions string `json:"instructions,omitempty"` // other
}

// Complete reports whether the required address fields are present.
func (a *PartialAddress) Complete() bool {
	return a != nil && a.City != "" && a.Street != "" && a.HouseNumber != ""
}
