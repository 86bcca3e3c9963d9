package services

import (
	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/models"
)

func (s *CollaborationServiceTestSuite) TestPostAndPageMessages() {
	c := s.invite()

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := s.chat.PostMessage(s.ctx, s.creator, c.ID, &PostMessageRequest{Content: text})
		s.Require().NoError(err)
	}

	page, err := s.chat.ListMessages(s.ctx, s.hotel, c.ID, "", 4)
	s.Require().NoError(err)
	s.Require().Len(page.Messages, 4)
	s.True(page.Messages[0].IsSystem())
	s.Equal("three", page.Messages[3].Content)
	s.NotEmpty(page.NextCursor)

	page, err = s.chat.ListMessages(s.ctx, s.hotel, c.ID, page.NextCursor, 4)
	s.Require().NoError(err)
	s.Require().Len(page.Messages, 2)
	s.Equal("four", page.Messages[0].Content)
	s.Equal("five", page.Messages[1].Content)
	s.Empty(page.NextCursor)

	_, err = s.chat.ListMessages(s.ctx, s.hotel, c.ID, "not-a-cursor", 4)
	s.assertKind(err, apperror.KindValidation)
}

func (s *CollaborationServiceTestSuite) TestPostImageMessage() {
	c := s.invite()

	msg, err := s.chat.PostMessage(s.ctx, s.hotel, c.ID, &PostMessageRequest{
		MessageType: models.MessageKindImage,
		Content:     "https://cdn.example.com/suite.jpg",
	})
	s.Require().NoError(err)
	s.Equal(models.MessageKindImage, msg.Kind)
	s.Equal(models.PartyHotel, *msg.SenderRole)

	_, err = s.chat.PostMessage(s.ctx, s.hotel, c.ID, &PostMessageRequest{
		MessageType: models.MessageKindImage,
		Content:     "suite.jpg",
	})
	s.assertKind(err, apperror.KindValidation)

	_, err = s.chat.PostMessage(s.ctx, s.hotel, c.ID, &PostMessageRequest{
		MessageType: models.MessageKindSystem,
		Content:     "Collaboration accepted",
	})
	s.assertKind(err, apperror.KindValidation)

	_, err = s.chat.PostMessage(s.ctx, s.hotel, c.ID, &PostMessageRequest{Content: ""})
	s.assertKind(err, apperror.KindValidation)
}

func (s *CollaborationServiceTestSuite) TestConversationInbox() {
	c := s.invite()

	conversations, err := s.chat.Conversations(s.ctx, s.creator)
	s.Require().NoError(err)
	s.Empty(conversations, "pending collaborations are not conversations yet")

	_, err = s.collabs.AgreeToTerms(s.ctx, s.creator, c.ID)
	s.Require().NoError(err)
	_, err = s.chat.PostMessage(s.ctx, s.hotel, c.ID, &PostMessageRequest{Content: "Welcome!"})
	s.Require().NoError(err)

	conversations, err = s.chat.Conversations(s.ctx, s.creator)
	s.Require().NoError(err)
	s.Require().Len(conversations, 1)
	s.Equal(c.ID, conversations[0].Collaboration.ID)
	s.Require().NotNil(conversations[0].LastMessage)
	s.Equal("Welcome!", conversations[0].LastMessage.Content)
	// creation, the creator's own agreement notice and the hotel's greeting
	s.Equal(int64(3), conversations[0].UnreadCount)

	marked, err := s.chat.MarkRead(s.ctx, s.creator, c.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), marked)

	conversations, err = s.chat.Conversations(s.ctx, s.creator)
	s.Require().NoError(err)
	s.Zero(conversations[0].UnreadCount)

	hotelView, err := s.chat.Conversations(s.ctx, s.hotel)
	s.Require().NoError(err)
	s.Equal(int64(2), hotelView[0].UnreadCount)

	_, err = s.chat.MarkRead(s.ctx, s.outsider, c.ID)
	s.assertKind(err, apperror.KindForbidden)
}
