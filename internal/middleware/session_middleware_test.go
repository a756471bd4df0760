package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session())
	r.GET("/ping", func(c *gin.Context) {
		sessionID, _ := GetSessionID(c)
		c.String(http.StatusOK, sessionID)
	})
	return r
}

func TestSession_IssuesFreshID(t *testing.T) {
	r := setupSessionRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	issued := w.Header().Get(SessionHeader)
	_, err := uuid.Parse(issued)
	require.NoError(t, err)
	assert.Equal(t, issued, w.Body.String())
	assert.Equal(t, "true", w.Header().Get(SessionFreshHeader))
}

func TestSession_KeepsPresentedID(t *testing.T) {
	r := setupSessionRouter()

	presented := uuid.NewString()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(SessionHeader, presented)
	r.ServeHTTP(w, req)

	assert.Equal(t, presented, w.Header().Get(SessionHeader))
	assert.Equal(t, presented, w.Body.String())
	// freshness cannot be judged while the session store is unreachable
	assert.Empty(t, w.Header().Get(SessionFreshHeader))
}

func TestSession_ReplacesMalformedID(t *testing.T) {
	r := setupSessionRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(SessionHeader, "not-a-uuid")
	r.ServeHTTP(w, req)

	issued := w.Header().Get(SessionHeader)
	_, err := uuid.Parse(issued)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", issued)
	assert.Equal(t, "true", w.Header().Get(SessionFreshHeader))
}
