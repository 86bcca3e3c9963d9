package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/i18n"
)

func respond(t *testing.T, lang string, err error) (int, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize("en"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/collaborations", nil)
	c.Set("lang", lang)
	AppErrorResponse(c, err)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestAppErrorResponse(t *testing.T) {
	code, resp := respond(t, "en", apperror.InvalidTransition("declined", "agree to"))
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "declined", details["current_status"])

	code, resp = respond(t, "zh_TW", apperror.Forbidden("you are not a participant of this collaboration"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, i18n.T("zh_TW", i18n.KeyErrorForbidden), resp.Error.Message)
}

func TestAppErrorResponseHidesInternalCause(t *testing.T) {
	code, resp := respond(t, "en", errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection refused")
}

func TestPaginationParams(t *testing.T) {
	p := PaginationParams{Page: 0, Limit: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = PaginationParams{Page: 3, Limit: 10}.Normalize()
	assert.Equal(t, 20, p.Offset())

	result := CreatePaginationResult([]int{1}, 21, p)
	assert.Equal(t, 3, result.TotalPages)
}
