// internal/handlers/deliverable.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/collab-backend/internal/services"
	"github.com/javajoker/collab-backend/internal/utils"
)

type DeliverableHandler struct {
	deliverableService *services.DeliverableService
}

func NewDeliverableHandler(deliverableService *services.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{
		deliverableService: deliverableService,
	}
}

// GET /collaborations/:id/deliverables
func (h *DeliverableHandler) ListDeliverables(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	list, err := h.deliverableService.ListDeliverables(c.Request.Context(), party, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, list)
}

// PATCH /collaborations/:id/deliverables/:deliverableId
func (h *DeliverableHandler) UpdateDeliverable(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}
	collaborationID, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}
	deliverableID, ok := pathID(c, "deliverableId", "deliverable")
	if !ok {
		return
	}

	var req services.UpdateDeliverableRequest
	if !bindJSON(c, &req) {
		return
	}

	deliverable, err := h.deliverableService.SetStatus(c.Request.Context(), party, collaborationID, deliverableID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, deliverable)
}
