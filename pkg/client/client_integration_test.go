package client_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/gin-gonic/gin"
	"github.com/go-mail/mail"
	"github.com/harryhq/mail-manager/internal/middleware"
	"github.com/harryhq/mail-manager/pkg/client"
	"github.com/harryhq/mail-manager/pkg/config"
	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/event"
	"github.com/harryhq/mail-manager/pkg/inttest"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/harryhq/mail-manager/pkg/org"
	"github.com/harryhq/mail-manager/pkg/queue"
	"github.com/harryhq/mail-manager/pkg/setting"
	"github.com/harryhq/mail-manager/pkg/storage"
	"github.com/harryhq/mail-manager/pkg/token"
	"github.com/harryhq/mail-manager/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
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

	templatesDir := t.TempDir()
	err = os.WriteFile(filepath.Join(templatesDir, "welcome_subject.txt"), []byte("Welcome to {{.site_name}}, {{.first_name}}!"), 0o600)
	require.NoError(t, err, "failed to write template")
	err = os.WriteFile(filepath.Join(templatesDir, "welcome_message.txt"), []byte("Hi {{.first_name}}, welcome to {{.site_name}}."), 0o600)
	require.NoError(t, err, "failed to write template")
	renderer := email.NewRenderer(os.DirFS(templatesDir))

	settingService := setting.NewService(setting.NewRepository(db))
	eventService := event.NewService(logger, event.NewRepository(db), event.NewEventBroker())

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
			DefaultFromEmail: "noreply@mail.test",
			DefaultFromName:  "Acme Mail",
		},
		Authentication: config.Authentication{
			AccessTokenExpirationSeconds:            600,
			RefreshTokenExpirationSeconds:           600,
			RefreshTokenRememberMeExpirationSeconds: 600,
		},
	}
	emailService := email.NewService(logger, cfg, email.NewRepository(db), settingService, renderer, noopDialer{}, publisher, objectStorage, eventService)

	userService := user.NewService("https://ui.mail.test", 900, user.NewRepository(db), emailService)
	orgService := org.NewService(org.NewRepository(db), userService)
	err = user.CreateAdminUser(ctx, "admin@mail.test", "adminadminadmin1", userService, orgService)
	require.NoError(t, err, "failed to create admin user")

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "failed to generate private key")
	authentication := middleware.NewAuthentication(&privateKey.PublicKey, userService)
	authorization := middleware.NewAuthorization(logger, userService)

	redis := inttest.SetupRedis(t)
	tokenService := token.NewService(logger, token.NewRepository(redis), privateKey, 600, "secret", 600, 600)

	server := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		user.Routes(engine, authentication, authorization, user.NewHandler(cfg, userService, tokenService))
		email.Routes(engine, authentication.TokenAuthentication, email.NewHandler(emailService))
	})

	mailClient := client.New(server.ServerURL)

	var accessToken string
	{
		t.Log("SignIn")

		tokens, err := mailClient.SignIn(ctx, "admin@mail.test", "adminadminadmin1")

		require.NoError(t, err, "failed to sign in")
		require.NotEmpty(t, tokens.AccessToken, "should return an access token")
		accessToken = tokens.AccessToken
	}

	{
		t.Log("SignInWrongPassword")

		_, err := mailClient.SignIn(ctx, "admin@mail.test", "wrongwrongwrong1")

		require.ErrorContains(t, err, "401")
	}

	var message *model.EmailMessage
	{
		t.Log("CreateMessage")

		message, err = mailClient.CreateMessage(ctx, accessToken, client.CreateMessageRequest{
			ToName:          "Customer",
			ToEmail:         "customer@example.com",
			TemplatePrefix:  "welcome",
			TemplateContext: model.JSONMap{"first_name": "Sam"},
		})

		require.NoError(t, err, "failed to create message")
		assert.Equal(t, model.EmailMessageStatusReady, message.Status)
		assert.Equal(t, "Welcome to Acme Mail, Sam!", message.Subject)
		assert.Equal(t, "noreply@mail.test", message.SenderEmail)
	}

	{
		t.Log("Attach")

		content := "quarterly report"
		attachment, err := mailClient.Attach(ctx, accessToken, message.ID, "report.txt", "text/plain", strings.NewReader(content))

		require.NoError(t, err, "failed to attach file")
		assert.Equal(t, "report.txt", attachment.Filename)
		assert.Equal(t, "text/plain", attachment.Mimetype)

		key := "email-message-attachments/" + attachment.UUID.String() + ".txt"
		assert.Equal(t, content, string(s3.GetObject(t, s3Bucket, key)))
	}

	{
		t.Log("AttachMismatchedContentType")

		_, err := mailClient.Attach(ctx, accessToken, message.ID, "report.txt", "application/pdf", strings.NewReader("x"))

		require.ErrorContains(t, err, "400")
		require.ErrorContains(t, err, "filename report.txt does not match mimetype application/pdf")
	}

	{
		t.Log("Queue")

		queued, err := mailClient.Queue(ctx, accessToken, message.ID)

		require.NoError(t, err, "failed to queue message")
		assert.True(t, queued, "should be queued, no message was sent before")

		// no send consumer runs in this test so the message stays pending
		found, err := mailClient.FindMessage(ctx, accessToken, message.ID)
		require.NoError(t, err, "failed to find message")
		assert.Equal(t, model.EmailMessageStatusPending, found.Status)
		assert.Len(t, found.Attachments, 1)
	}

	{
		t.Log("Duplicate")

		duplicate, err := mailClient.Duplicate(ctx, accessToken, message.ID)

		require.NoError(t, err, "failed to duplicate message")
		assert.Equal(t, model.EmailMessageStatusReady, duplicate.Status)
		assert.NotEqual(t, message.UUID, duplicate.UUID)
		assert.Len(t, duplicate.Attachments, 1)
	}

	{
		t.Log("FindMessageNotFound")

		_, err := mailClient.FindMessage(ctx, accessToken, 9999)

		require.ErrorContains(t, err, "404")
	}

	{
		t.Log("InvalidToken")

		_, err := mailClient.FindMessage(ctx, "not-a-token", message.ID)

		require.ErrorContains(t, err, "401")
	}
}

type noopDialer struct{}

func (noopDialer) DialAndSend(...*mail.Message) error {
	return nil
}
