// internal/handlers/collaboration.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/i18n"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/negotiation"
	"github.com/javajoker/collab-backend/internal/services"
	"github.com/javajoker/collab-backend/internal/utils"
)

type CollaborationHandler struct {
	collaborationService *services.CollaborationService
}

func NewCollaborationHandler(collaborationService *services.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{
		collaborationService: collaborationService,
	}
}

// POST /collaborations
func (h *CollaborationHandler) CreateCollaboration(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req services.CreateCollaborationRequest
	if !bindJSON(c, &req) {
		return
	}

	collaboration, err := h.collaborationService.CreateCollaboration(c.Request.Context(), party, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, collaboration)
}

// GET /collaborations
func (h *CollaborationHandler) ListCollaborations(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	searchParams := services.CollaborationSearchParams{
		PaginationParams: params,
	}

	// Parse filters
	lang := utils.GetLangFromContext(c)
	if status := c.Query("status"); status != "" {
		s := models.CollaborationStatus(status)
		if !s.Valid() {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "status"), nil)
			return
		}
		searchParams.Status = &s
	}

	if initiator := c.Query("initiator_type"); initiator != "" {
		role := models.PartyRole(initiator)
		if !role.Valid() {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "initiator_type"), nil)
			return
		}
		searchParams.InitiatorType = &role
	}

	if listingIDStr := c.Query("listing_id"); listingIDStr != "" {
		listingID, err := uuid.Parse(listingIDStr)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalidID, "listing"), nil)
			return
		}
		searchParams.ListingID = &listingID
	}

	collaborations, total, err := h.collaborationService.SearchCollaborations(c.Request.Context(), party, searchParams)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(collaborations, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /collaborations/:id
func (h *CollaborationHandler) GetCollaboration(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	collaboration, err := h.collaborationService.GetCollaboration(c.Request.Context(), party, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, collaboration)
}

// PUT /collaborations/:id/terms
func (h *CollaborationHandler) ProposeTerms(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var patch negotiation.TermsPatch
	if !bindJSON(c, &patch) {
		return
	}

	collaboration, err := h.collaborationService.ProposeTerms(c.Request.Context(), party, id, patch)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, collaboration)
}

// POST /collaborations/:id/agree
func (h *CollaborationHandler) AgreeToTerms(c *gin.Context) {
	h.transition(c, h.collaborationService.AgreeToTerms)
}

// POST /collaborations/:id/decline
func (h *CollaborationHandler) DeclineCollaboration(c *gin.Context) {
	h.transition(c, h.collaborationService.DeclineCollaboration)
}

// POST /collaborations/:id/complete
func (h *CollaborationHandler) CompleteCollaboration(c *gin.Context) {
	h.transition(c, h.collaborationService.CompleteCollaboration)
}

type transitionFunc func(ctx context.Context, actor models.Party, id uuid.UUID) (*models.Collaboration, error)

func (h *CollaborationHandler) transition(c *gin.Context, fn transitionFunc) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	collaboration, err := fn(c.Request.Context(), party, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, collaboration)
}

// POST /collaborations/:id/respond
func (h *CollaborationHandler) Respond(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var req services.RespondRequest
	if !bindJSON(c, &req) {
		return
	}

	collaboration, err := h.collaborationService.Respond(c.Request.Context(), party, id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, collaboration)
}

// POST /collaborations/:id/cancel
func (h *CollaborationHandler) CancelCollaboration(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var req services.CancelCollaborationRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	collaboration, err := h.collaborationService.CancelCollaboration(c.Request.Context(), party, id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, collaboration)
}

// POST /collaborations/:id/rating
func (h *CollaborationHandler) RateCollaboration(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var req services.RateCollaborationRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := h.collaborationService.RateCollaboration(c.Request.Context(), party, id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, rating)
}
