// internal/models/deliverable.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Deliverable struct {
	BaseModel
	CollaborationID uuid.UUID         `json:"collaboration_id" gorm:"type:uuid;not null;index"`
	Platform        Platform          `json:"platform" gorm:"size:50;not null"`
	Type            string            `json:"type" gorm:"size:100;not null"`
	Quantity        int               `json:"quantity" gorm:"not null;check:chk_deliverable_quantity,quantity > 0"`
	Status          DeliverableStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CompletedAt     *time.Time        `json:"completed_at"`
}

func (Deliverable) TableName() string {
	return "collaboration_deliverables"
}
