// internal/negotiation/change.go
package negotiation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/javajoker/collab-backend/internal/models"
)

type Action string

const (
	ActionCreate   Action = "created"
	ActionPropose  Action = "terms_updated"
	ActionAgree    Action = "agreed"
	ActionDecline  Action = "declined"
	ActionCancel   Action = "cancelled"
	ActionComplete Action = "completed"
)

type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Change describes one successful engine transition. It is the source of the
// system message written for that transition.
type Change struct {
	Action       Action
	Actor        models.PartyRole
	OldStatus    models.CollaborationStatus
	NewStatus    models.CollaborationStatus
	TermsVersion int
	Fields       map[string]FieldChange
	Reason       string
	At           time.Time
}

func (c *Change) StatusChanged() bool {
	return c.OldStatus != c.NewStatus
}

func (c *Change) set(field string, old, new interface{}) {
	if c.Fields == nil {
		c.Fields = make(map[string]FieldChange)
	}
	c.Fields[field] = FieldChange{Old: old, New: new}
}

// Metadata renders the change in its JSON shape, the same shape a reader gets
// back from the database.
func (c *Change) Metadata() models.JSONB {
	raw := map[string]interface{}{
		"action":        c.Action,
		"actor":         c.Actor,
		"old_status":    c.OldStatus,
		"new_status":    c.NewStatus,
		"terms_version": c.TermsVersion,
		"changes":       c.Fields,
	}
	if c.Fields == nil {
		raw["changes"] = map[string]FieldChange{}
	}
	if c.Reason != "" {
		raw["reason"] = c.Reason
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return models.JSONB{"action": string(c.Action)}
	}
	var out models.JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		return models.JSONB{"action": string(c.Action)}
	}
	return out
}

// Summary is the human readable content of the system message.
func (c *Change) Summary() string {
	actor := displayRole(c.Actor)
	switch c.Action {
	case ActionCreate:
		if c.Actor == models.PartyHotel {
			return "Hotel sent a collaboration invitation"
		}
		return "Creator applied for a collaboration"
	case ActionPropose:
		return fmt.Sprintf("%s proposed new terms (version %d)", actor, c.TermsVersion)
	case ActionAgree:
		if c.NewStatus == models.StatusAccepted {
			return fmt.Sprintf("%s agreed to the terms. Collaboration accepted", actor)
		}
		return fmt.Sprintf("%s agreed to the terms", actor)
	case ActionDecline:
		return fmt.Sprintf("%s declined the collaboration", actor)
	case ActionCancel:
		if c.Reason != "" {
			return fmt.Sprintf("%s cancelled the collaboration: %s", actor, c.Reason)
		}
		return fmt.Sprintf("%s cancelled the collaboration", actor)
	case ActionComplete:
		return fmt.Sprintf("%s marked the collaboration as completed", actor)
	}
	return string(c.Action)
}

func displayRole(role models.PartyRole) string {
	if role == "" {
		return "System"
	}
	s := string(role)
	return strings.ToUpper(s[:1]) + s[1:]
}

// diffTerms compares two sets of terms field by field in their JSON form.
func diffTerms(old, new models.CollaborationTerms) map[string]FieldChange {
	before, after := termsMap(old), termsMap(new)
	changes := make(map[string]FieldChange)
	for key, nv := range after {
		ov := before[key]
		if !reflect.DeepEqual(ov, nv) {
			changes[key] = FieldChange{Old: ov, New: nv}
		}
	}
	// fields cleared by the update are omitted from the new form
	for key, ov := range before {
		if _, ok := after[key]; !ok {
			changes[key] = FieldChange{Old: ov, New: nil}
		}
	}
	return changes
}

func termsMap(t models.CollaborationTerms) map[string]interface{} {
	out := make(map[string]interface{})
	data, err := json.Marshal(t)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}

func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
