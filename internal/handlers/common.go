// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/i18n"
	"github.com/javajoker/collab-backend/internal/middleware"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/utils"
)

func currentParty(c *gin.Context) (models.Party, bool) {
	party, ok := middleware.GetParty(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return party, ok
}

// pathID parses the named path parameter as a uuid.
func pathID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalidID, resource), nil)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// bindOptionalJSON binds the body only when one was sent.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}
