// Package client provides a typed Go client for the mail-manager API. Services that send their
// transactional email through the manager use it instead of hand rolling HTTP calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/harryhq/mail-manager/pkg/token"
)

// New returns a client for the mail-manager API at baseURL, like "https://mail.example.com".
//
//goland:noinspection GoExportedFuncWithUnexportedType
func New(baseURL string) *mailClient {
	return &mailClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type mailClient struct {
	baseURL    string
	httpClient *http.Client
}

// SignIn exchanges the user's credentials for tokens. The access token authenticates all other
// calls.
func (c *mailClient) SignIn(ctx context.Context, email string, password string) (*token.Tokens, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tokens", nil)
	if err != nil {
		return nil, err
	}
	request.SetBasicAuth(email, password)

	tokens := &token.Tokens{}
	err = c.do(request, http.StatusCreated, tokens)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

type CreateMessageRequest struct {
	OrgName         string        `json:"orgName,omitempty"`
	SenderName      string        `json:"senderName,omitempty"`
	SenderEmail     string        `json:"senderEmail,omitempty"`
	ToName          string        `json:"toName,omitempty"`
	ToEmail         string        `json:"toEmail"`
	ReplyToName     string        `json:"replyToName,omitempty"`
	ReplyToEmail    string        `json:"replyToEmail,omitempty"`
	Subject         string        `json:"subject,omitempty"`
	TemplatePrefix  string        `json:"templatePrefix"`
	TemplateContext model.JSONMap `json:"templateContext,omitempty"`
}

// CreateMessage creates an email message and prepares it for sending.
func (c *mailClient) CreateMessage(ctx context.Context, accessToken string, createRequest CreateMessageRequest) (*model.EmailMessage, error) {
	body, err := json.Marshal(createRequest)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Content-Type", "application/json")

	message := &model.EmailMessage{}
	err = c.do(request, http.StatusCreated, message)
	if err != nil {
		return nil, err
	}
	return message, nil
}

// FindMessage returns the message with the given id, including its attachments and current
// delivery status.
func (c *mailClient) FindMessage(ctx context.Context, accessToken string, id uint) (*model.EmailMessage, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messageURL(id), nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	message := &model.EmailMessage{}
	err = c.do(request, http.StatusOK, message)
	if err != nil {
		return nil, err
	}
	return message, nil
}

// Attach uploads an attachment to the message. The filename extension has to match the content
// type of the file.
func (c *mailClient) Attach(ctx context.Context, accessToken string, id uint, filename string, contentType string, file io.Reader) (*model.EmailMessageAttachment, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL(id)+"/attachments", &body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Content-Type", writer.FormDataContentType())

	attachment := &model.EmailMessageAttachment{}
	err = c.do(request, http.StatusCreated, attachment)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

// Queue queues the message for sending using the configured cooldown. It returns false if the
// cooldown canceled the message instead of queueing it.
func (c *mailClient) Queue(ctx context.Context, accessToken string, id uint) (bool, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL(id)+"/queue", nil)
	if err != nil {
		return false, err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response := &email.QueueResponse{}
	err = c.do(request, http.StatusOK, response)
	if err != nil {
		return false, err
	}
	return response.Queued, nil
}

// Duplicate copies the message into a fresh delivery in status ready, attachments included.
func (c *mailClient) Duplicate(ctx context.Context, accessToken string, id uint) (*model.EmailMessage, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL(id)+"/duplicate", nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	message := &model.EmailMessage{}
	err = c.do(request, http.StatusCreated, message)
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (c *mailClient) messageURL(id uint) string {
	return c.baseURL + "/messages/" + strconv.FormatUint(uint64(id), 10)
}

func (c *mailClient) do(request *http.Request, expected int, out any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != expected {
		body, _ := io.ReadAll(response.Body)
		return fmt.Errorf("%s %s: %s: %s", request.Method, request.URL.Path, response.Status, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(response.Body).Decode(out)
}
