package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/collab-backend/internal/config"
	"github.com/javajoker/collab-backend/internal/i18n"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

type APITestSuite struct {
	suite.Suite
	router *Router

	creatorToken  string
	hotelToken    string
	outsiderToken string
	creator       models.CreatorProfile
	listing       models.HotelListing
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret")
	s.Require().NoError(i18n.Initialize("en"))
}

func (s *APITestSuite) SetupTest() {
	mem := repository.NewMemory()
	s.creator = mem.AddCreator(models.CreatorProfile{UserID: uuid.New(), Name: "Mia Travels"})
	hotel := mem.AddHotel(models.HotelProfile{UserID: uuid.New(), Name: "Seaside Inn"})
	outsider := mem.AddHotel(models.HotelProfile{UserID: uuid.New(), Name: "Mountain Lodge"})
	s.listing = mem.AddListing(models.HotelListing{HotelProfileID: hotel.ID, Name: "Ocean Suite", Location: "Lisbon"})

	s.creatorToken = s.token(s.creator.UserID, "creator")
	s.hotelToken = s.token(hotel.UserID, "hotel")
	s.outsiderToken = s.token(outsider.UserID, "hotel")

	s.router = Initialize(mem.Repository(), &config.Config{
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			MessagesPerMinute: 600,
			MessageBurst:      100,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		I18n: config.I18nConfig{DefaultLocale: "en"},
	})
}

func (s *APITestSuite) TearDownTest() {
	s.router.Close()
}

func (s *APITestSuite) token(userID uuid.UUID, userType string) string {
	token, err := utils.GenerateJWT(userID, userType, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *APITestSuite) do(method, path, token string, body interface{}, headers ...string) (int, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func (s *APITestSuite) decode(raw json.RawMessage, v interface{}) {
	s.Require().NoError(json.Unmarshal(raw, v))
}

func (s *APITestSuite) invite() models.Collaboration {
	code, resp := s.do(http.MethodPost, "/v1/collaborations", s.hotelToken, map[string]interface{}{
		"listing_id":         s.listing.ID,
		"creator_id":         s.creator.ID,
		"collaboration_type": "Paid",
		"paid_amount":        500,
		"platform_deliverables": []map[string]interface{}{
			{"platform": "Instagram", "deliverables": []map[string]interface{}{{"type": "Instagram Post", "quantity": 2}}},
			{"platform": "TikTok", "deliverables": []map[string]interface{}{{"type": "TikTok Video", "quantity": 1}}},
		},
	})
	s.Require().Equal(http.StatusCreated, code)
	s.Require().True(resp.Success)

	var c models.Collaboration
	s.decode(resp.Data, &c)
	return c
}

func (s *APITestSuite) TestHealth() {
	code, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, code)
}

func (s *APITestSuite) TestAuthentication() {
	code, resp := s.do(http.MethodGet, "/v1/collaborations", "", nil)
	s.Equal(http.StatusUnauthorized, code)
	s.Require().NotNil(resp.Error)
	s.Equal("UNAUTHORIZED", resp.Error.Code)

	code, _ = s.do(http.MethodGet, "/v1/collaborations", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, code)

	// Valid token, but no creator profile behind it.
	code, resp = s.do(http.MethodGet, "/v1/collaborations", s.token(uuid.New(), "creator"), nil)
	s.Equal(http.StatusForbidden, code)
	s.Equal("FORBIDDEN", resp.Error.Code)
}

func (s *APITestSuite) TestNegotiationOverHTTP() {
	c := s.invite()
	s.Equal(models.StatusPending, c.Status)
	base := "/v1/collaborations/" + c.ID.String()

	code, resp := s.do(http.MethodPost, base+"/agree", s.hotelToken, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(resp.Data, &c)
	s.Equal(models.StatusNegotiating, c.Status)

	code, resp = s.do(http.MethodPost, base+"/agree", s.hotelToken, nil)
	s.Equal(http.StatusConflict, code)
	s.Equal("ALREADY_AGREED", resp.Error.Code)

	code, resp = s.do(http.MethodPost, base+"/agree", s.creatorToken, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(resp.Data, &c)
	s.Equal(models.StatusAccepted, c.Status)

	// Terms are frozen once accepted.
	code, resp = s.do(http.MethodPut, base+"/terms", s.creatorToken, map[string]interface{}{"paid_amount": 900})
	s.Equal(http.StatusConflict, code)
	s.Equal("INVALID_TRANSITION", resp.Error.Code)

	code, resp = s.do(http.MethodGet, base+"/deliverables", s.creatorToken, nil)
	s.Require().Equal(http.StatusOK, code)
	var list struct {
		Deliverables []models.Deliverable `json:"deliverables"`
		Progress     struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
		} `json:"progress"`
	}
	s.decode(resp.Data, &list)
	s.Require().Len(list.Deliverables, 2)
	s.Equal(2, list.Progress.Total)

	code, resp = s.do(http.MethodPatch, base+"/deliverables/"+list.Deliverables[0].ID.String(), s.creatorToken,
		map[string]string{"status": "completed"})
	s.Require().Equal(http.StatusOK, code)
	var deliverable models.Deliverable
	s.decode(resp.Data, &deliverable)
	s.Equal(models.DeliverableStatusCompleted, deliverable.Status)
	s.NotNil(deliverable.CompletedAt)

	code, resp = s.do(http.MethodPatch, base+"/deliverables/"+list.Deliverables[0].ID.String(), s.creatorToken,
		map[string]string{"status": "done"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("VALIDATION_ERROR", resp.Error.Code)
}

func (s *APITestSuite) TestChatOverHTTP() {
	c := s.invite()
	base := "/v1/collaborations/" + c.ID.String()

	code, _ := s.do(http.MethodPost, base+"/messages", s.creatorToken, map[string]string{"content": "See you in September"})
	s.Require().Equal(http.StatusCreated, code)

	code, resp := s.do(http.MethodPost, base+"/messages", s.creatorToken, map[string]string{"content": "x", "message_type": "system"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("VALIDATION_ERROR", resp.Error.Code)

	code, resp = s.do(http.MethodGet, base+"/messages?limit=10", s.hotelToken, nil)
	s.Require().Equal(http.StatusOK, code)
	var page struct {
		Messages []models.Message `json:"messages"`
	}
	s.decode(resp.Data, &page)
	s.Require().Len(page.Messages, 2)
	s.Equal(models.MessageKindSystem, page.Messages[0].Kind)
	s.Equal("See you in September", page.Messages[1].Content)

	code, _ = s.do(http.MethodGet, base+"/messages?cursor=garbage", s.hotelToken, nil)
	s.Equal(http.StatusBadRequest, code)

	code, resp = s.do(http.MethodPost, base+"/read", s.hotelToken, nil)
	s.Require().Equal(http.StatusOK, code)
	var read struct {
		MarkedRead int64 `json:"marked_read"`
	}
	s.decode(resp.Data, &read)
	s.Equal(int64(2), read.MarkedRead)

	s.router.Notifications.Wait()
	code, resp = s.do(http.MethodGet, "/v1/notifications", s.hotelToken, nil)
	s.Require().Equal(http.StatusOK, code)
	var notifications []models.Notification
	s.decode(resp.Data, &notifications)
	s.Require().Len(notifications, 1)
	s.Equal("New message", notifications[0].Title)
}

func (s *APITestSuite) TestListingAndAccessControl() {
	c := s.invite()

	code, resp := s.do(http.MethodGet, "/v1/collaborations?status=pending", s.creatorToken, nil)
	s.Require().Equal(http.StatusOK, code)
	var items []models.Collaboration
	s.decode(resp.Data, &items)
	s.Require().Len(items, 1)
	s.Equal(c.ID, items[0].ID)
	pagination := resp.Meta["pagination"].(map[string]interface{})
	s.Equal(float64(1), pagination["total"])

	for _, query := range []string{"status=archived", "initiator_type=agency", "listing_id=42"} {
		code, resp = s.do(http.MethodGet, "/v1/collaborations?"+query, s.creatorToken, nil)
		s.Equal(http.StatusBadRequest, code, query)
		s.Equal("BAD_REQUEST", resp.Error.Code, query)
	}

	code, resp = s.do(http.MethodGet, "/v1/collaborations?status=pending&initiator_type=hotel", s.creatorToken, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(resp.Data, &items)
	s.Len(items, 1)

	code, resp = s.do(http.MethodGet, "/v1/collaborations", s.outsiderToken, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(resp.Data, &items)
	s.Empty(items)

	code, resp = s.do(http.MethodGet, "/v1/collaborations/"+c.ID.String(), s.outsiderToken, nil)
	s.Equal(http.StatusForbidden, code)
	s.Equal("FORBIDDEN", resp.Error.Code)

	code, resp = s.do(http.MethodGet, "/v1/collaborations/"+c.ID.String(), s.outsiderToken, nil, "Accept-Language", "zh-TW")
	s.Equal(http.StatusForbidden, code)
	s.Equal(i18n.T("zh_TW", i18n.KeyErrorForbidden), resp.Error.Message)

	code, resp = s.do(http.MethodGet, "/v1/collaborations/not-a-uuid", s.creatorToken, nil)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("BAD_REQUEST", resp.Error.Code)

	code, resp = s.do(http.MethodGet, "/v1/collaborations/"+uuid.NewString(), s.creatorToken, nil)
	s.Equal(http.StatusNotFound, code)
	s.Equal("NOT_FOUND", resp.Error.Code)

	code, resp = s.do(http.MethodPost, "/v1/collaborations", s.hotelToken, map[string]interface{}{
		"listing_id":         s.listing.ID,
		"creator_id":         s.creator.ID,
		"collaboration_type": "Paid",
		"paid_amount":        300,
		"platform_deliverables": []map[string]interface{}{
			{"platform": "YouTube", "deliverables": []map[string]interface{}{{"type": "Vlog", "quantity": 1}}},
		},
	})
	s.Equal(http.StatusConflict, code)
	s.Equal("DUPLICATE_ACTIVE", resp.Error.Code)

	// Cancel with and without a body.
	code, resp = s.do(http.MethodPost, "/v1/collaborations/"+c.ID.String()+"/cancel", s.hotelToken,
		map[string]string{"reason": "Fully booked"})
	s.Require().Equal(http.StatusOK, code)
	s.decode(resp.Data, &c)
	s.Equal(models.StatusCancelled, c.Status)
	s.Equal("Fully booked", c.CancellationReason)

	code, _ = s.do(http.MethodPost, "/v1/collaborations/"+c.ID.String()+"/cancel", s.hotelToken, nil)
	s.Equal(http.StatusOK, code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
