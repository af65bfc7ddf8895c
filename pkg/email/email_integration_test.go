package email_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/gin-gonic/gin"
	"github.com/go-mail/mail"
	"github.com/harryhq/mail-manager/pkg/config"
	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/event"
	"github.com/harryhq/mail-manager/pkg/inttest"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/harryhq/mail-manager/pkg/queue"
	"github.com/harryhq/mail-manager/pkg/setting"
	"github.com/harryhq/mail-manager/pkg/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmailMessageHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db := inttest.SetupDB(t)

	s3Dir := t.TempDir()
	s3Bucket := "mail-attachments"
	err := os.Mkdir(filepath.Join(s3Dir, s3Bucket), 0o755)
	require.NoError(t, err, "failed to create S3 attachment bucket")
	s3 := inttest.SetupS3(t, s3Dir)
	objectStorage := storage.NewS3Client(logger, s3.Client, manager.NewUploader(s3.Client))

	amqpClient := inttest.SetupRabbitMQ(t)
	publisher, err := queue.NewPublisher(amqpClient.URI)
	require.NoError(t, err, "failed to create publisher")
	t.Cleanup(func() { require.NoError(t, publisher.Close(), "failed to close publisher") })
	consumer, err := queue.NewConsumer(logger, amqpClient.URI, "mail-manager-test")
	require.NoError(t, err, "failed to create consumer")
	t.Cleanup(func() { require.NoError(t, consumer.Close(), "failed to close consumer") })

	templatesDir := t.TempDir()
	writeTemplate(t, templatesDir, "welcome_subject.txt", "Welcome to {{.site_name}}, {{.first_name}}!")
	writeTemplate(t, templatesDir, "welcome_message.txt", "Hi {{.first_name}}, welcome to {{.site_name}}.")
	writeTemplate(t, templatesDir, "welcome_message.html", "<p>Hi {{.first_name}}, welcome to {{.site_name}}.</p>")
	renderer := email.NewRenderer(os.DirFS(templatesDir))

	settingService := setting.NewService(setting.NewRepository(db))
	eventService := event.NewService(logger, event.NewRepository(db), event.NewEventBroker())
	dialer := &recordingDialer{}

	cfg := config.Config{
		Hostname: "mail.test",
		S3: config.S3{
			Bucket:           s3Bucket,
			AttachmentPrefix: "email-message-attachments",
		},
		Mail: config.Mail{
			CooldownPeriodSeconds: 180,
			CooldownAllowed:       1,
		},
		Site: config.Site{
			Name:             "Acme Mail",
			ContactEmail:     "support@mail.test",
			DefaultFromEmail: "noreply@mail.test",
			DefaultFromName:  "Acme Mail",
		},
	}
	emailService := email.NewService(logger, cfg, email.NewRepository(db), settingService, renderer, dialer, publisher, objectStorage, eventService)

	err = email.NewConsumer(logger, emailService).Start(consumer)
	require.NoError(t, err, "failed to start send consumer")

	user := &model.User{
		Email: "sender@mail.test",
		Orgs:  []model.Org{{Name: "marketing", Slug: "marketing", Hostname: "marketing.mail.test"}},
	}
	err = db.Create(user).Error
	require.NoError(t, err, "failed to create user")

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		authenticator := func(c *gin.Context) {
			c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), user))
		}
		email.Routes(engine, authenticator, email.NewHandler(emailService))
	})

	var message model.EmailMessage
	var messageID string
	{
		t.Log("CreateMessage")

		client.PostJSON(t, "/messages", strings.NewReader(`{
			"orgName":         "marketing",
			"toName":          "Customer",
			"toEmail":         "customer@example.com",
			"templatePrefix":  "welcome",
			"templateContext": {"first_name": "Sam"}
		}`), &message)

		require.Equal(t, model.EmailMessageStatusReady, message.Status)
		require.Equal(t, "noreply@mail.test", message.SenderEmail)
		require.Equal(t, "Acme Mail", message.SenderName)
		require.Equal(t, "Welcome to Acme Mail, Sam!", message.Subject)

		messageID = strconv.FormatUint(uint64(message.ID), 10)
	}

	{
		t.Log("ReplyToNameWithoutEmailRejected")

		response := client.Do(t, http.MethodPost, "/messages", strings.NewReader(`{
			"toEmail":        "customer@example.com",
			"templatePrefix": "welcome",
			"replyToName":    "The Team"
		}`), http.StatusBadRequest, inttest.WithHeader("Content-Type", "application/json"))

		require.Equal(t, "reply to has a name but does not have an email", string(response))
	}

	var attachment model.EmailMessageAttachment
	{
		t.Log("AttachFile")

		body, contentType := multipartFile(t, "invoice.pdf", "application/pdf", "attached invoice bytes")
		response := client.Post(t, "/messages/"+messageID+"/attachments", body, inttest.WithHeader("Content-Type", contentType))

		err := json.Unmarshal(response, &attachment)
		require.NoError(t, err, "POST /messages/{id}/attachments: failed to unmarshal HTTP response body")
		require.Equal(t, "invoice.pdf", attachment.Filename)
		require.Equal(t, "application/pdf", attachment.Mimetype)

		content := s3.GetObject(t, s3Bucket, "email-message-attachments/"+attachment.UUID.String()+".pdf")
		require.Equal(t, "attached invoice bytes", string(content))
	}

	{
		t.Log("MismatchedFilenameRejected")

		body, contentType := multipartFile(t, "invoice.txt", "application/pdf", "not a pdf")
		response := client.Do(t, http.MethodPost, "/messages/"+messageID+"/attachments", body, http.StatusBadRequest, inttest.WithHeader("Content-Type", contentType))

		require.Equal(t, "filename invoice.txt does not match mimetype application/pdf", string(response))
	}

	{
		t.Log("QueueAndSend")

		response := client.Do(t, http.MethodPost, "/messages/"+messageID+"/queue", nil, http.StatusOK)
		var queued email.QueueResponse
		err := json.Unmarshal(response, &queued)
		require.NoError(t, err, "POST /messages/{id}/queue: failed to unmarshal HTTP response body")
		require.True(t, queued.Queued)

		requireMessageStatus(t, db, message.ID, model.EmailMessageStatusSent)

		var sent model.EmailMessage
		client.GetJSON(t, "/messages/"+messageID, &sent)
		require.NotNil(t, sent.SentAt)
		require.NotNil(t, sent.MessageID)
		require.Equal(t, "<"+message.UUID.String()+"@mail.test>", *sent.MessageID)

		raw := dialer.lastMessage(t)
		require.Contains(t, raw, "Subject: Welcome to Acme Mail, Sam!")
		require.Contains(t, raw, `"Customer" <customer@example.com>`)
		require.Contains(t, raw, `"Acme Mail" <noreply@mail.test>`)
		require.Contains(t, raw, "Message-ID: <"+message.UUID.String()+"@mail.test>")
		require.Contains(t, raw, "Hi Sam, welcome to Acme Mail.")
		require.Contains(t, raw, "<p>Hi Sam, welcome to Acme Mail.</p>")
		require.Contains(t, raw, "invoice.pdf")
		require.Contains(t, raw, base64.StdEncoding.EncodeToString([]byte("attached invoice bytes")), "attachment content should be streamed from S3 into the message")
	}

	{
		t.Log("AttachAfterSendConflicts")

		body, contentType := multipartFile(t, "late.pdf", "application/pdf", "too late")
		client.Do(t, http.MethodPost, "/messages/"+messageID+"/attachments", body, http.StatusConflict, inttest.WithHeader("Content-Type", contentType))
	}

	var duplicate model.EmailMessage
	{
		t.Log("Duplicate")

		client.PostJSON(t, "/messages/"+messageID+"/duplicate", nil, &duplicate)

		require.Equal(t, model.EmailMessageStatusReady, duplicate.Status)
		require.NotEqual(t, message.UUID, duplicate.UUID)
		require.Nil(t, duplicate.SentAt)
		require.Nil(t, duplicate.MessageID)
		require.Len(t, duplicate.Attachments, 1)
		copied := duplicate.Attachments[0]
		require.NotEqual(t, attachment.UUID, copied.UUID)
		require.True(t, s3.ObjectExists(t, s3Bucket, "email-message-attachments/"+copied.UUID.String()+".pdf"), "copied attachment should exist in S3")
	}

	{
		t.Log("CooldownCancelsDuplicate")

		duplicateID := strconv.FormatUint(uint64(duplicate.ID), 10)
		response := client.Do(t, http.MethodPost, "/messages/"+duplicateID+"/queue", nil, http.StatusOK)
		var queued email.QueueResponse
		err := json.Unmarshal(response, &queued)
		require.NoError(t, err, "POST /messages/{id}/queue: failed to unmarshal HTTP response body")
		require.False(t, queued.Queued, "a second welcome email within the cooldown period should be canceled")

		var canceled model.EmailMessage
		client.GetJSON(t, "/messages/"+duplicateID, &canceled)
		require.Equal(t, model.EmailMessageStatusCanceled, canceled.Status)
		require.Equal(t, "Cooling down", canceled.ErrorMessage)

		// canceled is terminal, queueing again conflicts
		client.Do(t, http.MethodPost, "/messages/"+duplicateID+"/queue", nil, http.StatusConflict)
	}

	{
		t.Log("CooldownOverride")

		var second model.EmailMessage
		client.PostJSON(t, "/messages/"+messageID+"/duplicate", nil, &second)
		secondID := strconv.FormatUint(uint64(second.ID), 10)

		response := client.Do(t, http.MethodPost, "/messages/"+secondID+"/queue", strings.NewReader(`{"allowed": 2}`), http.StatusOK, inttest.WithHeader("Content-Type", "application/json"))
		var queued email.QueueResponse
		err := json.Unmarshal(response, &queued)
		require.NoError(t, err, "POST /messages/{id}/queue: failed to unmarshal HTTP response body")
		require.True(t, queued.Queued, "a second welcome email should be allowed with the raised cooldown")

		requireMessageStatus(t, db, second.ID, model.EmailMessageStatusSent)
	}

	{
		t.Log("KillSwitch")

		_, err := settingService.Set(ctx, model.DisableOutboundEmailSetting, model.GlobalSettingTypeBool, "true")
		require.NoError(t, err, "failed to set kill switch")

		var killed model.EmailMessage
		client.PostJSON(t, "/messages", strings.NewReader(`{
			"toEmail":         "other@example.com",
			"templatePrefix":  "welcome",
			"templateContext": {"first_name": "Alex"}
		}`), &killed)
		killedID := strconv.FormatUint(uint64(killed.ID), 10)

		sentBefore := dialer.count()
		response := client.Do(t, http.MethodPost, "/messages/"+killedID+"/queue", nil, http.StatusOK)
		var queued email.QueueResponse
		err = json.Unmarshal(response, &queued)
		require.NoError(t, err, "POST /messages/{id}/queue: failed to unmarshal HTTP response body")
		require.True(t, queued.Queued)

		requireMessageStatus(t, db, killed.ID, model.EmailMessageStatusError)

		var errored model.EmailMessage
		client.GetJSON(t, "/messages/"+killedID, &errored)
		require.Contains(t, errored.ErrorMessage, model.DisableOutboundEmailSetting)
		require.Equal(t, sentBefore, dialer.count(), "no message should reach the SMTP dialer while outbound email is disabled")
	}

	{
		t.Log("ListMessages")

		var messages []model.EmailMessage
		client.GetJSON(t, "/messages", &messages)

		require.Len(t, messages, 5, "expected the welcome message, its two duplicates, the reply-to failure and the killed message")
	}

	{
		t.Log("StatusEvents")

		require.Eventuallyf(t, func() bool {
			var events []model.Event
			err := db.Where("kind = ?", model.EmailMessageEventKind).Find(&events).Error
			if err != nil {
				return false
			}
			statuses := map[string]bool{}
			for _, event := range events {
				if status, ok := event.Payload["status"].(string); ok {
					statuses[status] = true
				}
			}
			return statuses["sent"] && statuses["canceled"] && statuses["error"]
		}, 10*time.Second, 100*time.Millisecond, "sent, canceled and error events should be recorded")
	}
}

// requireMessageStatus waits for the send consumer to move the message to the wanted status.
func requireMessageStatus(t *testing.T, db *gorm.DB, id uint, status model.EmailMessageStatus) {
	t.Helper()

	require.Eventuallyf(t, func() bool {
		var message model.EmailMessage
		err := db.First(&message, id).Error
		if err != nil {
			return false
		}
		return message.Status == status
	}, 30*time.Second, 100*time.Millisecond, "email message %d never reached status %s", id, status)
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
	require.NoErrorf(t, err, "failed to write template %s", name)
}

// multipartFile builds a single file form. The part carries an explicit content type, which the
// attachment handler reads, instead of the octet-stream default of CreateFormFile.
func multipartFile(t *testing.T, filename, contentType, content string) (io.Reader, string) {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	fw, err := w.CreatePart(h)
	require.NoError(t, err, "failed to create form file")
	_, err = io.WriteString(fw, content)
	require.NoError(t, err, "failed to write file")
	require.NoError(t, w.Close(), "failed to close multipart writer")
	return &b, w.FormDataContentType()
}

// recordingDialer stands in for the SMTP server. Messages are serialized on arrival so attachment
// bodies are streamed from the object store the same way a real send would.
type recordingDialer struct {
	mu       sync.Mutex
	messages []string
}

func (d *recordingDialer) DialAndSend(m ...*mail.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, message := range m {
		var b bytes.Buffer
		if _, err := message.WriteTo(&b); err != nil {
			return err
		}
		d.messages = append(d.messages, b.String())
	}
	return nil
}

func (d *recordingDialer) lastMessage(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()

	require.NotEmpty(t, d.messages, "no message reached the SMTP dialer")
	return d.messages[len(d.messages)-1]
}

func (d *recordingDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}
