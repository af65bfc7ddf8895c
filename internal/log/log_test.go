package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/middleware"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.RequestID())

	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil)))
	r.Use(middleware.RequestLogger(logger))

	var userID uint = 1
	auth := middleware.NewAuthentication(nil, SignInService{userID: userID})
	r.Use(auth.BasicAuthentication)

	t.Run("ContainRequestIDAndUserID", func(t *testing.T) {
		var requestID string
		r.GET("/messages/:id", func(c *gin.Context) {
			requestID = middleware.GetRequestID(c)
			// middleware.RequestLogger() and our call to InfoContext should add log lines with
			// attribute id=<requestID> and user=<userID>
			logger.InfoContext(c, "info")
			c.String(http.StatusOK, "success")
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/messages/100", nil)
		require.NoError(t, err)
		req.SetBasicAuth("operator@mail.test", "oneoneoneoneone1")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			assert.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, "id", requestID)
			assertLogAttributeEquals(t, got, "user", userID)
		}
	})

	t.Run("ContainsQueryAndURLParameters", func(t *testing.T) {
		r.GET("/orgs/:orgName", func(c *gin.Context) {
			c.String(http.StatusOK, "success")
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/orgs/marketing", nil)
		require.NoError(t, err)
		req.SetBasicAuth("operator@mail.test", "oneoneoneoneone1")
		q := req.URL.Query()
		q.Add("status", "sent")
		req.URL.RawQuery = q.Encode()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)

			v := assertLogAttributeKey(t, got, "request")
			gotRequest, ok := v.(map[string]any)
			assert.True(t, ok, "want log line to have key `request` of type map[string]any")

			assertLogAttributeEquals(t, gotRequest, "path", "/orgs/marketing")
			assertLogAttributeEquals(t, gotRequest, "route", "/orgs/:orgName")
			assertLogAttributeEquals(t, gotRequest, "query", "status=sent")
			assertLogAttributeEquals(t, gotRequest, "params", map[string]any{"orgName": "marketing"})
		}
	})

	t.Run("UseLogLevelInfoByDefault", func(t *testing.T) {
		r.GET("/settings", func(c *gin.Context) {
			c.String(http.StatusOK, "success")
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/settings", nil)
		require.NoError(t, err)
		req.SetBasicAuth("operator@mail.test", "oneoneoneoneone1")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, "level", "INFO")
			_, ok := got["error"]
			assert.False(t, ok, "want no key `error` for non warn/error levels")
		}
	})

	t.Run("UseLogLevelWarningOnClientError", func(t *testing.T) {
		r.GET("/me", func(c *gin.Context) {
			c.String(http.StatusOK, "success")
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/me", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, "level", "WARN")
			assertLogAttributeContains(t, got, "error", "invalid Authorization header")
		}
	})

	t.Run("UseLogLevelErrorOnServerError", func(t *testing.T) {
		r.GET("/messages", func(c *gin.Context) {
			_ = c.AbortWithError(http.StatusInternalServerError, errors.New("failed to render template"))
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/messages", nil)
		require.NoError(t, err)
		req.SetBasicAuth("operator@mail.test", "oneoneoneoneone1")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, "level", "ERROR")
			assertLogAttributeContains(t, got, "error", "failed to render template")
		}
	})
}

func assertLogAttributeEquals(t *testing.T, got map[string]any, wantKey string, wantValue any) {
	v := assertLogAttributeKey(t, got, wantKey)
	assert.EqualValuesf(t, wantValue, v, "want log line to have key %q", wantKey)
}

func assertLogAttributeContains(t *testing.T, got map[string]any, wantKey string, wantValue any) {
	v := assertLogAttributeKey(t, got, wantKey)
	assert.Containsf(t, v, wantValue, "want log line to have key %q", wantKey)
}

func assertLogAttributeKey(t *testing.T, got map[string]any, wantKey string) any {
	v, ok := got[wantKey]
	assert.Truef(t, ok, "want log line to have key %q", wantKey)
	return v
}

type SignInService struct {
	userID uint
}

func (s SignInService) SignIn(ctx context.Context, email string, password string) (*model.User, error) {
	return &model.User{ID: s.userID, Email: email, Password: password}, nil
}
