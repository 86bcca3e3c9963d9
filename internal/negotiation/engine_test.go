package negotiation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func ptr[T any](v T) *T { return &v }

func paidTerms(amount float64) models.CollaborationTerms {
	ct := models.CollaborationTypePaid
	return models.CollaborationTerms{
		CollaborationType: &ct,
		PaidAmount:        &amount,
		PlatformDeliverables: models.PlatformDeliverablesList{
			{Platform: models.PlatformInstagram, Deliverables: []models.DeliverableSpec{{Type: "Instagram Post", Quantity: 2}}},
		},
	}
}

type EngineTestSuite struct {
	suite.Suite
	clock  *fakeClock
	engine *Engine
	collab *models.Collaboration
}

func (s *EngineTestSuite) SetupTest() {
	s.clock = &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)}
	s.engine = NewEngine(s.clock.Now)
	s.collab = &models.Collaboration{
		CreatorID:          uuid.New(),
		HotelID:            uuid.New(),
		ListingID:          uuid.New(),
		CollaborationTerms: paidTerms(500),
	}
	_, err := s.engine.Start(s.collab, models.PartyCreator)
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
}

func (s *EngineTestSuite) assertAcceptedInvariant() {
	c := s.collab
	if c.Status != models.StatusAccepted {
		return
	}
	s.Require().NotNil(c.CreatorAgreedAt)
	s.Require().NotNil(c.HotelAgreedAt)
	s.False(c.CreatorAgreedAt.Before(c.TermLastUpdatedAt))
	s.False(c.HotelAgreedAt.Before(c.TermLastUpdatedAt))
}

func (s *EngineTestSuite) TestStartSeedsTimestamps() {
	s.Equal(models.StatusPending, s.collab.Status)
	s.Equal(models.PartyCreator, s.collab.InitiatorType)
	s.Equal(1, s.collab.TermsVersion)
	s.Equal(s.collab.CreatedAt, s.collab.TermLastUpdatedAt)
	s.Equal(0, s.collab.TermLastUpdatedAt.Nanosecond()%1000, "timestamps are truncated to microseconds")
}

func (s *EngineTestSuite) TestMutualAgreement() {
	change, err := s.engine.Agree(s.collab, models.PartyHotel)
	s.Require().NoError(err)
	s.Equal(models.StatusNegotiating, s.collab.Status)
	s.Equal(models.StatusPending, change.OldStatus)
	s.NotNil(s.collab.HotelAgreedAt)
	s.Nil(s.collab.RespondedAt)

	s.clock.Advance(time.Minute)
	change, err = s.engine.Agree(s.collab, models.PartyCreator)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, s.collab.Status)
	s.Equal(models.StatusAccepted, change.NewStatus)
	s.Require().NotNil(s.collab.RespondedAt)
	s.Contains(change.Fields, "responded_at")
	s.assertAcceptedInvariant()
}

func (s *EngineTestSuite) TestAgreeTwiceFailsWithAlreadyAgreed() {
	_, err := s.engine.Agree(s.collab, models.PartyHotel)
	s.Require().NoError(err)

	_, err = s.engine.Agree(s.collab, models.PartyHotel)
	s.True(apperror.Is(err, apperror.KindAlreadyAgreed))
}

func (s *EngineTestSuite) TestProposeClearsBothAgreements() {
	_, err := s.engine.Agree(s.collab, models.PartyCreator)
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	change, err := s.engine.Propose(s.collab, models.PartyCreator, TermsPatch{PaidAmount: ptr(750.0)})
	s.Require().NoError(err)

	s.Nil(s.collab.CreatorAgreedAt, "the proposer's own agreement is cleared too")
	s.Nil(s.collab.HotelAgreedAt)
	s.Equal(models.StatusNegotiating, s.collab.Status)
	s.Equal(2, s.collab.TermsVersion)
	s.Equal(750.0, *s.collab.PaidAmount)

	s.Require().Contains(change.Fields, "paid_amount")
	s.Equal(500.0, change.Fields["paid_amount"].Old)
	s.Equal(750.0, change.Fields["paid_amount"].New)
	s.Contains(change.Fields, "creator_agreed_at")
}

func (s *EngineTestSuite) TestStaleAgreementDoesNotAccept() {
	_, err := s.engine.Agree(s.collab, models.PartyHotel)
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	_, err = s.engine.Propose(s.collab, models.PartyCreator, TermsPatch{PaidAmount: ptr(600.0)})
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	_, err = s.engine.Agree(s.collab, models.PartyCreator)
	s.Require().NoError(err)
	s.Equal(models.StatusNegotiating, s.collab.Status)

	s.clock.Advance(time.Minute)
	_, err = s.engine.Agree(s.collab, models.PartyHotel)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, s.collab.Status)
	s.assertAcceptedInvariant()
}

func (s *EngineTestSuite) TestProposeAfterAcceptanceIsRejected() {
	_, _ = s.engine.Agree(s.collab, models.PartyHotel)
	_, _ = s.engine.Agree(s.collab, models.PartyCreator)
	s.Require().Equal(models.StatusAccepted, s.collab.Status)

	_, err := s.engine.Propose(s.collab, models.PartyHotel, TermsPatch{PaidAmount: ptr(1.0)})
	s.Require().Error(err)
	s.True(apperror.Is(err, apperror.KindInvalidTransition))
	s.Equal("accepted", apperror.From(err).Details["current_status"])
	s.Equal(500.0, *s.collab.PaidAmount)
}

func (s *EngineTestSuite) TestClockSkewNeverProducesStaleAgreement() {
	_, err := s.engine.Propose(s.collab, models.PartyHotel, TermsPatch{PaidAmount: ptr(900.0)})
	s.Require().NoError(err)

	// the next writer's clock runs behind the proposer's
	s.clock.Advance(-time.Hour)
	_, err = s.engine.Agree(s.collab, models.PartyCreator)
	s.Require().NoError(err)
	s.True(s.collab.AgreementCurrent(models.PartyCreator))

	_, err = s.engine.Agree(s.collab, models.PartyHotel)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, s.collab.Status)
	s.assertAcceptedInvariant()
}

func (s *EngineTestSuite) TestDeclineIsIdempotent() {
	change, err := s.engine.Decline(s.collab, models.PartyHotel)
	s.Require().NoError(err)
	s.Require().NotNil(change)
	s.Equal(models.StatusDeclined, s.collab.Status)
	s.NotNil(s.collab.RespondedAt)

	change, err = s.engine.Decline(s.collab, models.PartyHotel)
	s.NoError(err)
	s.Nil(change)
}

func (s *EngineTestSuite) TestDeclineFromAcceptedFails() {
	_, _ = s.engine.Agree(s.collab, models.PartyHotel)
	_, _ = s.engine.Agree(s.collab, models.PartyCreator)

	_, err := s.engine.Decline(s.collab, models.PartyHotel)
	s.True(apperror.Is(err, apperror.KindInvalidTransition))
}

func (s *EngineTestSuite) TestCancelAcceptedThenFrozen() {
	_, _ = s.engine.Agree(s.collab, models.PartyHotel)
	_, _ = s.engine.Agree(s.collab, models.PartyCreator)

	change, err := s.engine.Cancel(s.collab, models.PartyCreator, "  dates no longer work ")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, s.collab.Status)
	s.NotNil(s.collab.CancelledAt)
	s.Equal("dates no longer work", s.collab.CancellationReason)
	s.Equal("Creator cancelled the collaboration: dates no longer work", change.Summary())

	change, err = s.engine.Cancel(s.collab, models.PartyCreator, "")
	s.NoError(err)
	s.Nil(change)

	_, err = s.engine.Complete(s.collab, models.PartyHotel)
	s.True(apperror.Is(err, apperror.KindInvalidTransition))
	_, err = s.engine.Agree(s.collab, models.PartyHotel)
	s.True(apperror.Is(err, apperror.KindInvalidTransition))
}

func (s *EngineTestSuite) TestCompleteOnlyFromAccepted() {
	_, err := s.engine.Complete(s.collab, models.PartyHotel)
	s.True(apperror.Is(err, apperror.KindInvalidTransition))

	_, _ = s.engine.Agree(s.collab, models.PartyHotel)
	_, _ = s.engine.Agree(s.collab, models.PartyCreator)

	change, err := s.engine.Complete(s.collab, models.PartyHotel)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, s.collab.Status)
	s.NotNil(s.collab.CompletedAt)
	s.Equal(models.StatusAccepted, change.OldStatus)

	_, err = s.engine.Cancel(s.collab, models.PartyHotel, "")
	s.True(apperror.Is(err, apperror.KindInvalidTransition))
}

func (s *EngineTestSuite) TestAgreeRequiresCollaborationType() {
	c := &models.Collaboration{CollaborationTerms: models.CollaborationTerms{
		PlatformDeliverables: models.PlatformDeliverablesList{
			{Platform: models.PlatformTikTok, Deliverables: []models.DeliverableSpec{{Type: "Video", Quantity: 1}}},
		},
	}}
	_, err := s.engine.Start(c, models.PartyCreator)
	s.Require().NoError(err)

	_, err = s.engine.Agree(c, models.PartyHotel)
	s.True(apperror.Is(err, apperror.KindValidation))
	s.Equal(models.StatusPending, c.Status)
}

func (s *EngineTestSuite) TestMetadataCarriesStatuses() {
	change, err := s.engine.Agree(s.collab, models.PartyHotel)
	s.Require().NoError(err)

	meta := change.Metadata()
	s.Equal("agreed", meta["action"])
	s.Equal("hotel", meta["actor"])
	s.Equal("pending", meta["old_status"])
	s.Equal("negotiating", meta["new_status"])
	s.Equal(float64(1), meta["terms_version"])
	changes, ok := meta["changes"].(map[string]interface{})
	s.Require().True(ok)
	s.Contains(changes, "hotel_agreed_at")
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestProposeRejectsEmptyPatch(t *testing.T) {
	e := NewEngine(nil)
	c := &models.Collaboration{CollaborationTerms: paidTerms(100)}
	_, err := e.Start(c, models.PartyHotel)
	require.NoError(t, err)

	_, err = e.Propose(c, models.PartyHotel, TermsPatch{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 1, c.TermsVersion)
}

func TestProposeInvalidTermsLeavesCollaborationUntouched(t *testing.T) {
	e := NewEngine(nil)
	c := &models.Collaboration{CollaborationTerms: paidTerms(100)}
	_, err := e.Start(c, models.PartyHotel)
	require.NoError(t, err)
	before := c.Clone()

	_, err = e.Propose(c, models.PartyCreator, TermsPatch{DiscountPercentage: ptr(20)})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, before, c.Clone())
}

func TestProposeSwitchingTypeDropsOldFields(t *testing.T) {
	e := NewEngine(nil)
	c := &models.Collaboration{CollaborationTerms: paidTerms(100)}
	_, err := e.Start(c, models.PartyHotel)
	require.NoError(t, err)

	discount := models.CollaborationTypeDiscount
	change, err := e.Propose(c, models.PartyCreator, TermsPatch{
		CollaborationType:  &discount,
		DiscountPercentage: ptr(30),
	})
	require.NoError(t, err)
	assert.Nil(t, c.PaidAmount)
	assert.Equal(t, 30, *c.DiscountPercentage)
	assert.Equal(t, models.CollaborationTypeDiscount, *c.CollaborationType)
	assert.Contains(t, change.Fields, "paid_amount")
	assert.Contains(t, change.Fields, "collaboration_type")
}

func TestProposeClearsOptionalTerms(t *testing.T) {
	e := NewEngine(nil)
	terms := paidTerms(100)
	terms.StayNights = ptr(2)
	c := &models.Collaboration{CollaborationTerms: terms}
	_, err := e.Start(c, models.PartyHotel)
	require.NoError(t, err)

	change, err := e.Propose(c, models.PartyCreator, TermsPatch{Clear: []string{ClearStayNights}})
	require.NoError(t, err)
	assert.Nil(t, c.StayNights)
	assert.Equal(t, 2, c.TermsVersion)
	assert.Contains(t, change.Fields, "stay_nights")

	_, err = e.Propose(c, models.PartyCreator, TermsPatch{Clear: []string{"collaboration_type"}})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 2, c.TermsVersion)
}

func TestHotelInvitationRequiresType(t *testing.T) {
	e := NewEngine(nil)
	c := &models.Collaboration{CollaborationTerms: models.CollaborationTerms{
		PlatformDeliverables: models.PlatformDeliverablesList{
			{Platform: models.PlatformYouTube, Deliverables: []models.DeliverableSpec{{Type: "Vlog", Quantity: 1}}},
		},
	}}
	_, err := e.Start(c, models.PartyHotel)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
