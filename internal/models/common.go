// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type PartyRole string

const (
	PartyCreator PartyRole = "creator"
	PartyHotel   PartyRole = "hotel"
)

func (p PartyRole) Valid() bool {
	return p == PartyCreator || p == PartyHotel
}

// Other returns the counterpart role in a two-party collaboration.
func (p PartyRole) Other() PartyRole {
	if p == PartyCreator {
		return PartyHotel
	}
	return PartyCreator
}

type CollaborationStatus string

const (
	StatusPending     CollaborationStatus = "pending"
	StatusNegotiating CollaborationStatus = "negotiating"
	StatusAccepted    CollaborationStatus = "accepted"
	StatusDeclined    CollaborationStatus = "declined"
	StatusCompleted   CollaborationStatus = "completed"
	StatusCancelled   CollaborationStatus = "cancelled"
)

// Terminal reports whether no further transition is possible from s.
func (s CollaborationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusNegotiating, StatusAccepted, StatusDeclined, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s CollaborationStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusCompleted || s == StatusCancelled
}

// Active statuses participate in the one-per-(listing, creator) rule.
func (s CollaborationStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

type CollaborationType string

const (
	CollaborationTypeFreeStay CollaborationType = "Free Stay"
	CollaborationTypePaid     CollaborationType = "Paid"
	CollaborationTypeDiscount CollaborationType = "Discount"
)

func (t CollaborationType) Valid() bool {
	switch t {
	case CollaborationTypeFreeStay, CollaborationTypePaid, CollaborationTypeDiscount:
		return true
	}
	return false
}

type Platform string

const (
	PlatformInstagram      Platform = "Instagram"
	PlatformTikTok         Platform = "TikTok"
	PlatformYouTube        Platform = "YouTube"
	PlatformFacebook       Platform = "Facebook"
	PlatformContentPackage Platform = "Content Package"
	PlatformCustom         Platform = "Custom"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformTikTok, PlatformYouTube, PlatformFacebook,
		PlatformContentPackage, PlatformCustom:
		return true
	}
	return false
}

// Months are the accepted values of preferred_months.
var Months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func ValidMonth(m string) bool {
	for _, month := range Months {
		if m == month {
			return true
		}
	}
	return false
}

type DeliverableStatus string

const (
	DeliverableStatusPending   DeliverableStatus = "pending"
	DeliverableStatusCompleted DeliverableStatus = "completed"
)

type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindImage  MessageKind = "image"
	MessageKindSystem MessageKind = "system"
)
