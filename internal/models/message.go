// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one row of a collaboration's audit log. Rows are never updated
// except for ReadAt. Seq is the log position assigned by the database.
type Message struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Seq             int64       `json:"position" gorm:"autoIncrement;uniqueIndex;not null"`
	CollaborationID uuid.UUID   `json:"collaboration_id" gorm:"type:uuid;not null;index:idx_chat_messages_collab_created,priority:1"`
	SenderUserID    *uuid.UUID  `json:"sender_id" gorm:"type:uuid;index"`
	SenderRole      *PartyRole  `json:"sender_role,omitempty" gorm:"type:varchar(10)"`
	Content         string      `json:"content" gorm:"type:text;not null"`
	Kind            MessageKind `json:"message_type" gorm:"column:message_type;type:varchar(10);not null"`
	Metadata        JSONB       `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time   `json:"created_at" gorm:"not null;index:idx_chat_messages_collab_created,priority:2"`
	ReadAt          *time.Time  `json:"read_at"`
}

func (Message) TableName() string {
	return "chat_messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Message) IsSystem() bool {
	return m.Kind == MessageKindSystem
}
