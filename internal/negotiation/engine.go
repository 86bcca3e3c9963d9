// internal/negotiation/engine.go
package negotiation

import (
	"strings"
	"time"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

// Clock returns the current time.
type Clock func() time.Time

// Engine owns the terms of a collaboration, the two agreement timestamps and
// the status transitions derived from them. It mutates the collaboration it is
// given in memory; persisting the result and serialising callers is the
// caller's job.
//
// Every timestamp the engine writes is UTC, truncated to microseconds and never
// earlier than term_last_updated_at, so "agreed to the current terms" stays a
// plain agreed_at >= term_last_updated_at comparison after a database round
// trip and across writers with skewed clocks.
type Engine struct {
	clock Clock
}

func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{clock: clock}
}

func (e *Engine) now(c *models.Collaboration) time.Time {
	t := e.clock().UTC().Truncate(time.Microsecond)
	if t.Before(c.TermLastUpdatedAt) {
		t = c.TermLastUpdatedAt
	}
	return t
}

func (e *Engine) begin(action Action, actor models.PartyRole, c *models.Collaboration) *Change {
	return &Change{Action: action, Actor: actor, OldStatus: c.Status}
}

func (e *Engine) finish(change *Change, c *models.Collaboration, at time.Time) *Change {
	change.NewStatus = c.Status
	change.TermsVersion = c.TermsVersion
	change.At = at
	return change
}

// Start initialises a new collaboration opened by initiator with the terms
// already set on c. Invitations from a hotel must carry a collaboration type.
func (e *Engine) Start(c *models.Collaboration, initiator models.PartyRole) (*Change, error) {
	if !initiator.Valid() {
		return nil, apperror.Validation("invalid initiator", apperror.FieldError{
			Field: "initiator_type", Message: "initiator_type must be creator or hotel",
		})
	}
	if err := ValidateTerms(c.CollaborationTerms, initiator == models.PartyHotel); err != nil {
		return nil, err
	}

	now := e.now(c)
	change := e.begin(ActionCreate, initiator, c)
	change.Fields = diffTerms(models.CollaborationTerms{}, c.CollaborationTerms)

	c.InitiatorType = initiator
	c.Status = models.StatusPending
	c.CreatedAt = now
	c.UpdatedAt = now
	c.TermLastUpdatedAt = now
	c.TermsVersion = 1
	c.CreatorAgreedAt = nil
	c.HotelAgreedAt = nil

	change.OldStatus = ""
	return e.finish(change, c, now), nil
}

// Propose merges patch into the current terms. Any successful proposal starts
// a new terms version and clears both agreements, the proposer's included.
func (e *Engine) Propose(c *models.Collaboration, party models.PartyRole, patch TermsPatch) (*Change, error) {
	if patch.IsEmpty() {
		return nil, apperror.Validation("at least one term must be provided")
	}
	if err := patch.ValidateClear(); err != nil {
		return nil, err
	}
	if c.Status == models.StatusAccepted || c.Status.Terminal() {
		return nil, apperror.InvalidTransition(string(c.Status), "propose terms for")
	}

	next := patch.Apply(c.CollaborationTerms)
	if err := ValidateTerms(next, false); err != nil {
		return nil, err
	}

	now := e.now(c)
	change := e.begin(ActionPropose, party, c)
	change.Fields = diffTerms(c.CollaborationTerms, next)
	if c.CreatorAgreedAt != nil {
		change.set("creator_agreed_at", timeValue(c.CreatorAgreedAt), nil)
	}
	if c.HotelAgreedAt != nil {
		change.set("hotel_agreed_at", timeValue(c.HotelAgreedAt), nil)
	}

	c.CollaborationTerms = next
	c.TermLastUpdatedAt = now
	c.TermsVersion++
	c.CreatorAgreedAt = nil
	c.HotelAgreedAt = nil
	c.Status = models.StatusNegotiating
	c.UpdatedAt = now

	return e.finish(change, c, now), nil
}

// Agree records party's agreement to the current terms. The collaboration is
// accepted once the other party's agreement is current as well.
func (e *Engine) Agree(c *models.Collaboration, party models.PartyRole) (*Change, error) {
	if c.Status.Terminal() {
		return nil, apperror.InvalidTransition(string(c.Status), "agree to")
	}
	if c.AgreementCurrent(party) {
		return nil, apperror.AlreadyAgreed(string(party))
	}
	if c.CollaborationType == nil {
		return nil, apperror.Validation("terms must specify a collaboration type before they can be agreed", apperror.FieldError{
			Field: "collaboration_type", Message: "collaboration_type is required",
		})
	}

	now := e.now(c)
	change := e.begin(ActionAgree, party, c)
	field := string(party) + "_agreed_at"
	change.set(field, timeValue(c.AgreedAt(party)), timeValue(&now))

	c.SetAgreedAt(party, &now)
	if c.AgreementCurrent(party.Other()) {
		c.Status = models.StatusAccepted
		c.RespondedAt = &now
		change.set("responded_at", nil, timeValue(&now))
	} else {
		c.Status = models.StatusNegotiating
	}
	c.UpdatedAt = now

	return e.finish(change, c, now), nil
}

// Decline ends a collaboration that is still being negotiated. Declining an
// already declined collaboration returns a nil change and no error.
func (e *Engine) Decline(c *models.Collaboration, party models.PartyRole) (*Change, error) {
	if c.Status == models.StatusDeclined {
		return nil, nil
	}
	if c.Status != models.StatusPending && c.Status != models.StatusNegotiating {
		return nil, apperror.InvalidTransition(string(c.Status), "decline")
	}

	now := e.now(c)
	change := e.begin(ActionDecline, party, c)
	change.set("responded_at", timeValue(c.RespondedAt), timeValue(&now))

	c.Status = models.StatusDeclined
	c.RespondedAt = &now
	c.UpdatedAt = now

	return e.finish(change, c, now), nil
}

// Cancel ends a collaboration that has not yet finished. Cancelling an already
// cancelled collaboration returns a nil change and no error.
func (e *Engine) Cancel(c *models.Collaboration, party models.PartyRole, reason string) (*Change, error) {
	if c.Status == models.StatusCancelled {
		return nil, nil
	}
	switch c.Status {
	case models.StatusPending, models.StatusNegotiating, models.StatusAccepted:
	default:
		return nil, apperror.InvalidTransition(string(c.Status), "cancel")
	}

	reason = strings.TrimSpace(reason)
	now := e.now(c)
	change := e.begin(ActionCancel, party, c)
	change.Reason = reason
	change.set("cancelled_at", nil, timeValue(&now))
	if reason != "" {
		change.set("cancellation_reason", nil, reason)
	}

	c.Status = models.StatusCancelled
	c.CancelledAt = &now
	c.CancellationReason = reason
	c.UpdatedAt = now

	return e.finish(change, c, now), nil
}

// Complete finishes an accepted collaboration.
func (e *Engine) Complete(c *models.Collaboration, party models.PartyRole) (*Change, error) {
	if c.Status != models.StatusAccepted {
		return nil, apperror.InvalidTransition(string(c.Status), "complete")
	}

	now := e.now(c)
	change := e.begin(ActionComplete, party, c)
	change.set("completed_at", nil, timeValue(&now))

	c.Status = models.StatusCompleted
	c.CompletedAt = &now
	c.UpdatedAt = now

	return e.finish(change, c, now), nil
}
