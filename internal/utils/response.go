// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/i18n"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

var errorKeys = map[apperror.Kind]string{
	apperror.KindValidation:        i18n.KeyErrorValidation,
	apperror.KindInvalidTransition: i18n.KeyErrorInvalidTransition,
	apperror.KindDuplicateActive:   i18n.KeyErrorDuplicateActive,
	apperror.KindAlreadyAgreed:     i18n.KeyErrorAlreadyAgreed,
	apperror.KindNotFound:          i18n.KeyErrorNotFound,
	apperror.KindForbidden:         i18n.KeyErrorForbidden,
	apperror.KindConflict:          i18n.KeyErrorConflict,
	apperror.KindInternal:          i18n.KeyErrorInternal,
}

// AppErrorResponse writes err using the status and code of its apperror kind.
// English clients get the specific message; other languages get the
// translated message for the kind. Internal errors are logged and their
// cause is never sent to the client.
func AppErrorResponse(c *gin.Context, err error) {
	appErr := apperror.From(err)
	lang := GetLangFromContext(c)

	if appErr.Kind == apperror.KindInternal {
		LogError(err, "request failed", logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		})
		ErrorResponse(c, http.StatusInternalServerError, string(apperror.KindInternal), i18n.T(lang, i18n.KeyErrorInternal), nil)
		return
	}

	message := appErr.Message
	if lang != i18n.DefaultLanguage {
		message = i18n.T(lang, errorKeys[appErr.Kind])
	}

	var details interface{}
	if len(appErr.Details) > 0 {
		details = appErr.Details
	}
	ErrorResponse(c, appErr.Status(), string(appErr.Kind), message, details)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLanguage
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

func GetUserTypeFromContext(c *gin.Context) (string, bool) {
	if userType, exists := c.Get("user_type"); exists {
		if userTypeStr, ok := userType.(string); ok {
			return userTypeStr, true
		}
	}
	return "", false
}
