package models

import "time"

// IdentityField names one editable identity field for lock/prefill bookkeeping.
type IdentityField string

const (
	FieldFirstName IdentityField = "first_name"
	FieldLastName  IdentityField = "last_name"
	FieldEmail     IdentityField = "email"
	FieldPhone     IdentityField = "phone"
)

// PartialIdentity holds whatever the visitor has entered so far.
type PartialIdentity struct {
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Gender    string     `json:"gender,omitempty"` // "male", "female", "other"
	Notes     string     `json:"notes,omitempty"`

	// Recipient is set when booking or gifting for someone else.
	IsBookingForSomeoneElse bool         `json:"isBookingForSomeoneElse,omitempty"`
	Recipient               *ContactInfo `json:"recipient,omitempty"`

	// Notification preferences for the booker.
	NotificationMethod   string `json:"notificationMethod,omitempty"`   // "email", "sms", "both"
	NotificationLanguage string `json:"notificationLanguage,omitempty"` // "he", "en", "ru"
}

// Field returns the current value of the named identity field.
func (p PartialIdentity) Field(f IdentityField) string {
	switch f {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	}
	return ""
}

// SetField assigns the named identity field.
func (p *PartialIdentity) SetField(f IdentityField, v string) {
	switch f {
	case FieldFirstName:
		p.FirstName = v
	case FieldLastName:
		p.LastName = v
	case FieldEmail:
		p.Email = v
	case FieldPhone:
		p.Phone = v
	}
}

// ContactInfo is a minimal name/email/phone triple embedded in redemption
// payloads and recipient sub-identities.
type ContactInfo struct {
	FirstName string     `bson:"firstName" json:"firstName,omitempty"`
	LastName  string     `bson:"lastName" json:"lastName,omitempty"`
	Email     string     `bson:"email" json:"email,omitempty"`
	Phone     string     `bson:"phone" json:"phone,omitempty"`
	BirthDate *time.Time `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Gender    string     `bson:"gender,omitempty" json:"gender,omitempty"`
}

// GuestIdentityHandle is the opaque reference a guest keeps across reloads.
// The secret is only ever returned once, on creation; the server stores its hash.
type GuestIdentityHandle struct {
	ID     string `json:"id"`
	Secret string `json:"secret,omitempty"`
}

// GuestIdentity is the guest directory record.
type GuestIdentity struct {
	ID         string     `bson:"id" json:"id"`
	FirstName  string     `bson:"firstName" json:"firstName"`
	LastName   string     `bson:"lastName" json:"lastName"`
	Email      string     `bson:"email" json:"email"`
	Phone      string     `bson:"phone" json:"phone"`
	BirthDate  *time.Time `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Gender     string     `bson:"gender,omitempty" json:"gender,omitempty"`
	SecretHash string     `bson:"secretHash" json:"-"`
	FCMToken   string     `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}
