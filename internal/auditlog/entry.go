// internal/auditlog/entry.go
package auditlog

import (
	"github.com/javajoker/collab-backend/internal/models"
)

// Entry is one of Text, Image or System.
type Entry interface {
	Kind() models.MessageKind
	message() models.Message
}

// HumanEntry is an entry written by a party. System entries do not satisfy it,
// so the chat path cannot forge engine messages.
type HumanEntry interface {
	Entry
	Author() models.Party
}

type Text struct {
	Sender  models.Party
	Content string `validate:"required,max=5000"`
}

func (Text) Kind() models.MessageKind { return models.MessageKindText }

func (t Text) Author() models.Party { return t.Sender }

func (t Text) message() models.Message {
	return humanMessage(t.Sender, t.Content, models.MessageKindText)
}

type Image struct {
	Sender models.Party
	URL    string `validate:"required,url,max=2048"`
}

func (Image) Kind() models.MessageKind { return models.MessageKindImage }

func (i Image) Author() models.Party { return i.Sender }

func (i Image) message() models.Message {
	return humanMessage(i.Sender, i.URL, models.MessageKindImage)
}

// System is written by the lifecycle controller for every validated transition.
// It has no sender.
type System struct {
	Content  string `validate:"required"`
	Metadata models.JSONB
}

func (System) Kind() models.MessageKind { return models.MessageKindSystem }

func (s System) message() models.Message {
	return models.Message{
		Content:  s.Content,
		Kind:     models.MessageKindSystem,
		Metadata: s.Metadata,
	}
}

func humanMessage(sender models.Party, content string, kind models.MessageKind) models.Message {
	userID := sender.UserID
	role := sender.Role
	return models.Message{
		SenderUserID: &userID,
		SenderRole:   &role,
		Content:      content,
		Kind:         kind,
	}
}
