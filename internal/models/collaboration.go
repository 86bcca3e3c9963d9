// internal/models/collaboration.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type DeliverableSpec struct {
	Type     string `json:"type" validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type PlatformDeliverables struct {
	Platform     Platform          `json:"platform" validate:"required,platform"`
	Deliverables []DeliverableSpec `json:"deliverables" validate:"required,min=1,dive"`
}

// PlatformDeliverablesList is the deliverable commitment carried by the terms,
// stored as a jsonb column.
type PlatformDeliverablesList []PlatformDeliverables

func (l PlatformDeliverablesList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *PlatformDeliverablesList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported platform_deliverables source type %T", value)
}

// CollaborationTerms is the negotiable part of a collaboration.
type CollaborationTerms struct {
	CollaborationType    *CollaborationType       `json:"collaboration_type" gorm:"type:varchar(20)" validate:"omitempty,collaboration_type"`
	FreeStayMinNights    *int                     `json:"free_stay_min_nights" validate:"omitempty,gt=0"`
	FreeStayMaxNights    *int                     `json:"free_stay_max_nights" validate:"omitempty,gt=0"`
	StayNights           *int                     `json:"stay_nights" validate:"omitempty,gt=0"`
	PaidAmount           *float64                 `json:"paid_amount" gorm:"type:decimal(10,2)" validate:"omitempty,gt=0,lte=99999999.99,cents"`
	DiscountPercentage   *int                     `json:"discount_percentage" validate:"omitempty,min=1,max=100"`
	TravelDateFrom       *Date                    `json:"travel_date_from" gorm:"type:date"`
	TravelDateTo         *Date                    `json:"travel_date_to" gorm:"type:date"`
	PreferredDateFrom    *Date                    `json:"preferred_date_from" gorm:"type:date"`
	PreferredDateTo      *Date                    `json:"preferred_date_to" gorm:"type:date"`
	PreferredMonths      pq.StringArray           `json:"preferred_months" gorm:"type:text[]" validate:"omitempty,dive,month"`
	PlatformDeliverables PlatformDeliverablesList `json:"platform_deliverables" gorm:"type:jsonb;not null" validate:"omitempty,dive"`
}

type Collaboration struct {
	BaseModel
	InitiatorType PartyRole           `json:"initiator_type" gorm:"type:varchar(10);not null"`
	CreatorID     uuid.UUID           `json:"creator_id" gorm:"type:uuid;not null;index"`
	HotelID       uuid.UUID           `json:"hotel_id" gorm:"type:uuid;not null;index"`
	ListingID     uuid.UUID           `json:"listing_id" gorm:"type:uuid;not null;index"`
	Status        CollaborationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	CollaborationTerms `gorm:"embedded"`

	WhyGreatFit string `json:"why_great_fit,omitempty" gorm:"size:500"`
	Consent     *bool  `json:"consent,omitempty"`

	// Negotiation
	CreatorAgreedAt   *time.Time `json:"creator_agreed_at"`
	HotelAgreedAt     *time.Time `json:"hotel_agreed_at"`
	TermLastUpdatedAt time.Time  `json:"term_last_updated_at" gorm:"not null"`
	TermsVersion      int        `json:"terms_version" gorm:"not null;default:1"`

	// Lifecycle
	RespondedAt        *time.Time `json:"responded_at"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`

	// Relationships
	Creator      *CreatorProfile `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Hotel        *HotelProfile   `json:"hotel,omitempty" gorm:"foreignKey:HotelID"`
	Listing      *HotelListing   `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	Deliverables []Deliverable   `json:"-" gorm:"foreignKey:CollaborationID;constraint:OnDelete:CASCADE"`
	Messages     []Message       `json:"-" gorm:"foreignKey:CollaborationID;constraint:OnDelete:CASCADE"`
}

// AgreedAt returns the agreement timestamp recorded for role.
func (c *Collaboration) AgreedAt(role PartyRole) *time.Time {
	if role == PartyCreator {
		return c.CreatorAgreedAt
	}
	return c.HotelAgreedAt
}

func (c *Collaboration) SetAgreedAt(role PartyRole, at *time.Time) {
	if role == PartyCreator {
		c.CreatorAgreedAt = at
	} else {
		c.HotelAgreedAt = at
	}
}

// AgreementCurrent reports whether role has agreed to the current version of the terms.
func (c *Collaboration) AgreementCurrent(role PartyRole) bool {
	at := c.AgreedAt(role)
	return at != nil && !at.Before(c.TermLastUpdatedAt)
}

// ProfileID returns the creator or hotel profile id bound to role.
func (c *Collaboration) ProfileID(role PartyRole) uuid.UUID {
	if role == PartyCreator {
		return c.CreatorID
	}
	return c.HotelID
}

// Clone returns a copy that shares no mutable state with c.
func (c Collaboration) Clone() Collaboration {
	out := c
	out.CollaborationTerms = c.CollaborationTerms.Clone()
	out.CreatorAgreedAt = cloneTime(c.CreatorAgreedAt)
	out.HotelAgreedAt = cloneTime(c.HotelAgreedAt)
	out.RespondedAt = cloneTime(c.RespondedAt)
	out.CancelledAt = cloneTime(c.CancelledAt)
	out.CompletedAt = cloneTime(c.CompletedAt)
	if c.Consent != nil {
		v := *c.Consent
		out.Consent = &v
	}
	out.Deliverables = nil
	out.Messages = nil
	return out
}

func (t CollaborationTerms) Clone() CollaborationTerms {
	out := t
	if t.CollaborationType != nil {
		v := *t.CollaborationType
		out.CollaborationType = &v
	}
	out.FreeStayMinNights = cloneInt(t.FreeStayMinNights)
	out.FreeStayMaxNights = cloneInt(t.FreeStayMaxNights)
	out.StayNights = cloneInt(t.StayNights)
	out.DiscountPercentage = cloneInt(t.DiscountPercentage)
	if t.PaidAmount != nil {
		v := *t.PaidAmount
		out.PaidAmount = &v
	}
	out.TravelDateFrom = cloneDate(t.TravelDateFrom)
	out.TravelDateTo = cloneDate(t.TravelDateTo)
	out.PreferredDateFrom = cloneDate(t.PreferredDateFrom)
	out.PreferredDateTo = cloneDate(t.PreferredDateTo)
	if t.PreferredMonths != nil {
		out.PreferredMonths = append(pq.StringArray(nil), t.PreferredMonths...)
	}
	if t.PlatformDeliverables != nil {
		out.PlatformDeliverables = make(PlatformDeliverablesList, len(t.PlatformDeliverables))
		for i, item := range t.PlatformDeliverables {
			out.PlatformDeliverables[i] = PlatformDeliverables{
				Platform:     item.Platform,
				Deliverables: append([]DeliverableSpec(nil), item.Deliverables...),
			}
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
