package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/harryhq/mail-manager/internal/errdef"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandler_CreateFromRequest(t *testing.T) {
	body := []byte(`{"RecordType": "Delivery", "MessageID": "id-abc123"}`)
	webhook := &model.EmailMessageWebhook{ID: 7, UUID: uuid.New(), Status: model.EmailMessageWebhookStatusNew}
	webhookService := &mockWebhookService{}
	webhookService.
		On("CreateFromRequest", mock.Anything, body, mock.MatchedBy(func(headers http.Header) bool {
			return headers.Get("X-Some-Header") == "id-xyz456"
		})).
		Return(webhook, nil)
	handler := NewHandler(webhookService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	request, err := http.NewRequest(http.MethodPost, "/webhooks/email", bytes.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Some-Header", "id-xyz456")
	c.Request = request

	handler.CreateFromRequest(c)

	require.Empty(t, c.Errors)
	assertResponse(t, w, http.StatusCreated, CreateResponse{UUID: webhook.UUID})
	webhookService.AssertExpectations(t)
}

func TestHandler_CreateFromRequest_RejectsInvalidPayloads(t *testing.T) {
	body := []byte(`not json`)
	webhookService := &mockWebhookService{}
	webhookService.
		On("CreateFromRequest", mock.Anything, body, mock.Anything).
		Return(nil, errdef.NewBadRequest("invalid payload"))
	handler := NewHandler(webhookService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	request, err := http.NewRequest(http.MethodPost, "/webhooks/email", bytes.NewReader(body))
	require.NoError(t, err)
	c.Request = request

	handler.CreateFromRequest(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsBadRequest(c.Errors.Last().Err), "should be a bad request error")
	webhookService.AssertExpectations(t)
}

func TestHandler_FindAll(t *testing.T) {
	webhooks := []*model.EmailMessageWebhook{
		{ID: 7, Type: "Delivery", Status: model.EmailMessageWebhookStatusProcessed},
		{ID: 8, Type: "Open", Status: model.EmailMessageWebhookStatusNew},
	}
	webhookService := &mockWebhookService{}
	webhookService.
		On("FindAll", mock.Anything).
		Return(webhooks, nil)
	handler := NewHandler(webhookService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	request, err := http.NewRequest(http.MethodGet, "/webhooks", nil)
	require.NoError(t, err)
	c.Request = request

	handler.FindAll(c)

	require.Empty(t, c.Errors)
	assertResponse(t, w, http.StatusOK, []model.EmailMessageWebhook{*webhooks[0], *webhooks[1]})
	webhookService.AssertExpectations(t)
}

func TestHandler_FindById(t *testing.T) {
	webhook := &model.EmailMessageWebhook{ID: 7, Type: "Delivery", Status: model.EmailMessageWebhookStatusProcessed}
	webhookService := &mockWebhookService{}
	webhookService.
		On("FindById", mock.Anything, uint(7)).
		Return(webhook, nil)
	handler := NewHandler(webhookService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	request, err := http.NewRequest(http.MethodGet, "/webhooks/7", nil)
	require.NoError(t, err)
	c.Request = request
	c.AddParam("id", "7")

	handler.FindById(c)

	require.Empty(t, c.Errors)
	assertResponse(t, w, http.StatusOK, *webhook)
	webhookService.AssertExpectations(t)
}

func assertResponse[V any](t *testing.T, rec *httptest.ResponseRecorder, expectedCode int, expectedBody V) {
	require.Equal(t, expectedCode, rec.Code, "HTTP status code does not match")
	assertJSON(t, rec.Body, expectedBody)
}

func assertJSON[V any](t *testing.T, body *bytes.Buffer, expected V) {
	actualBody := new(V)
	err := json.Unmarshal(body.Bytes(), &actualBody)
	require.NoError(t, err)
	require.Equal(t, expected, *actualBody, "HTTP response body does not match")
}

type mockWebhookService struct{ mock.Mock }

func (m *mockWebhookService) CreateFromRequest(ctx context.Context, body []byte, headers http.Header) (*model.EmailMessageWebhook, error) {
	called := m.Called(ctx, body, headers)
	webhook, _ := called.Get(0).(*model.EmailMessageWebhook)
	return webhook, called.Error(1)
}

func (m *mockWebhookService) FindById(ctx context.Context, id uint) (*model.EmailMessageWebhook, error) {
	called := m.Called(ctx, id)
	webhook, _ := called.Get(0).(*model.EmailMessageWebhook)
	return webhook, called.Error(1)
}

func (m *mockWebhookService) FindAll(ctx context.Context) ([]*model.EmailMessageWebhook, error) {
	called := m.Called(ctx)
	webhooks, _ := called.Get(0).([]*model.EmailMessageWebhook)
	return webhooks, called.Error(1)
}
