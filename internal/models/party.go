// internal/models/party.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Party is an authenticated actor resolved to its creator or hotel profile.
type Party struct {
	Role      PartyRole
	UserID    uuid.UUID
	ProfileID uuid.UUID
}

// The directory tables below are owned by the profile and listing services;
// this service only reads them.

type CreatorProfile struct {
	BaseModel
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Name           string    `json:"name" gorm:"size:255"`
	ProfilePicture string    `json:"profile_picture,omitempty" gorm:"type:text"`
}

func (CreatorProfile) TableName() string {
	return "creators"
}

type HotelProfile struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Name    string    `json:"name" gorm:"size:255"`
	Picture string    `json:"picture,omitempty" gorm:"type:text"`
}

func (HotelProfile) TableName() string {
	return "hotel_profiles"
}

type HotelListing struct {
	BaseModel
	HotelProfileID uuid.UUID `json:"hotel_profile_id" gorm:"type:uuid;not null;index"`
	Name           string    `json:"name" gorm:"size:255"`
	Location       string    `json:"location" gorm:"size:255"`
	Status         string    `json:"status" gorm:"size:20"`

	Hotel *HotelProfile `json:"hotel,omitempty" gorm:"foreignKey:HotelProfileID"`
}

func (HotelListing) TableName() string {
	return "hotel_listings"
}

type Rating struct {
	BaseModel
	CollaborationID uuid.UUID `json:"collaboration_id" gorm:"type:uuid;not null;uniqueIndex"`
	CreatorID       uuid.UUID `json:"creator_id" gorm:"type:uuid;not null;index"`
	HotelID         uuid.UUID `json:"hotel_id" gorm:"type:uuid;not null"`
	Rating          int       `json:"rating" gorm:"not null;check:chk_rating_range,rating BETWEEN 1 AND 5"`
	Comment         string    `json:"comment,omitempty" gorm:"type:text"`

	Collaboration *Collaboration `json:"-" gorm:"foreignKey:CollaborationID;constraint:OnDelete:CASCADE"`
}

func (Rating) TableName() string {
	return "creator_ratings"
}

type Notification struct {
	BaseModel
	RecipientUserID uuid.UUID  `json:"recipient_user_id" gorm:"type:uuid;not null;index"`
	Type            string     `json:"type" gorm:"type:varchar(50);not null;index"`
	Title           string     `json:"title" gorm:"size:255;not null"`
	Message         string     `json:"message" gorm:"type:text;not null"`
	CollaborationID *uuid.UUID `json:"collaboration_id" gorm:"type:uuid;index"`
	ReadAt          *time.Time `json:"read_at"`
}
