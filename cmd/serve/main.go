// Package classification mail-manager.
//
// Outbound transactional email service. Owns the email message lifecycle from creation over
// queueing and sending to the delivery states reported back by the email service provider.
//
//	Version: 0.1.0
//
//	Consumes:
//	  - application/json
//	  - multipart/form-data
//
//	Produces:
//	  - application/json
//
//	SecurityDefinitions:
//	  oauth2:
//	    type: oauth2
//	    tokenUrl: /tokens
//	    refreshUrl: /refresh
//	    flow: password
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-mail/mail"
	"github.com/harryhq/mail-manager/internal/handler"
	internalLog "github.com/harryhq/mail-manager/internal/log"
	"github.com/harryhq/mail-manager/internal/middleware"
	"github.com/harryhq/mail-manager/internal/server"
	"github.com/harryhq/mail-manager/internal/tracing"
	"github.com/harryhq/mail-manager/pkg/config"
	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/event"
	"github.com/harryhq/mail-manager/pkg/org"
	"github.com/harryhq/mail-manager/pkg/queue"
	"github.com/harryhq/mail-manager/pkg/setting"
	"github.com/harryhq/mail-manager/pkg/storage"
	"github.com/harryhq/mail-manager/pkg/token"
	"github.com/harryhq/mail-manager/pkg/user"
	"github.com/harryhq/mail-manager/pkg/webhook"
	"golang.org/x/sync/errgroup"
)

const serviceName = "mail-manager"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Environment)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JaegerCollectorURL != "" {
		shutdown, err := tracing.Setup(serviceName, cfg.JaegerCollectorURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down tracing", "error", err)
			}
		}()
	}

	db, err := storage.NewDatabase(logger, storage.PostgresqlConfig{
		Host:         cfg.Postgresql.Host,
		Port:         cfg.Postgresql.Port,
		Username:     cfg.Postgresql.Username,
		Password:     cfg.Postgresql.Password,
		DatabaseName: cfg.Postgresql.DatabaseName,
	})
	if err != nil {
		return err
	}

	redisClient, err := storage.NewRedis(storage.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		return err
	}

	objectStorage, err := newObjectStorage(ctx, logger, cfg.S3)
	if err != nil {
		return err
	}

	publisher, err := queue.NewPublisher(cfg.RabbitMQ.GetUrl())
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close the queue publisher", "error", err)
		}
	}()

	consumer, err := queue.NewConsumer(logger, cfg.RabbitMQ.GetUrl(), serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("Failed to close the queue consumer", "error", err)
		}
	}()

	eventBroker := event.NewEventBroker()
	eventService := event.NewService(logger, event.NewRepository(db), eventBroker)

	settingService := setting.NewService(setting.NewRepository(db))

	renderer := email.NewRenderer(os.DirFS(cfg.Mail.TemplatesDir))
	dialer := mail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	emailService := email.NewService(logger, cfg, email.NewRepository(db), settingService, renderer, dialer, publisher, objectStorage, eventService)

	webhookService := webhook.NewService(logger, webhook.NewRepository(db), publisher, eventService)

	userService := user.NewService(cfg.UIURL, cfg.Authentication.PasswordTokenTTLSeconds, user.NewRepository(db), emailService)
	orgService := org.NewService(org.NewRepository(db), userService)

	tokenService := token.NewService(
		logger,
		token.NewRepository(redisClient),
		cfg.Authentication.PrivateKey,
		cfg.Authentication.AccessTokenExpirationSeconds,
		cfg.Authentication.RefreshTokenSecretKey,
		cfg.Authentication.RefreshTokenExpirationSeconds,
		cfg.Authentication.RefreshTokenRememberMeExpirationSeconds,
	)

	err = user.CreateAdminUser(ctx, cfg.AdminUser.Email, cfg.AdminUser.Password, userService, orgService)
	if err != nil {
		return err
	}

	err = handler.RegisterValidation()
	if err != nil {
		return err
	}

	authenticationMiddleware := middleware.NewAuthentication(&cfg.Authentication.PrivateKey.PublicKey, userService)
	authorizationMiddleware := middleware.NewAuthorization(logger, userService)

	r := server.GetEngine(logger, serviceName)
	email.Routes(r, authenticationMiddleware.TokenAuthentication, email.NewHandler(emailService))
	webhook.Routes(r, authenticationMiddleware.TokenAuthentication, authorizationMiddleware, webhook.NewHandler(webhookService))
	org.Routes(r, authenticationMiddleware.TokenAuthentication, authorizationMiddleware, org.NewHandler(orgService))
	setting.Routes(r, authenticationMiddleware.TokenAuthentication, authorizationMiddleware, setting.NewHandler(settingService))
	user.Routes(r, authenticationMiddleware, authorizationMiddleware, user.NewHandler(cfg, userService, tokenService))
	event.Routes(r, authenticationMiddleware, event.NewHandler(logger, eventBroker))

	err = email.NewConsumer(logger, emailService).Start(consumer)
	if err != nil {
		return err
	}
	err = webhook.NewConsumer(logger, webhookService).Start(consumer)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: r.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "addr", httpServer.Addr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(environment string) *slog.Logger {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = internalLog.NewPrettyJSONHandler(os.Stdout, &internalLog.PrettyJSONHandlerOptions{
			HandlerOptions: slog.HandlerOptions{Level: slog.LevelDebug},
			PrettyPrint:    true,
		})
	}
	return slog.New(internalLog.New(handler))
}

// newObjectStorage connects the S3 client attachments are stored with. The endpoint override is
// only set when running against an S3 compatible store like localstack, path style addressing is
// required there as bucket subdomains do not resolve.
func newObjectStorage(ctx context.Context, logger *slog.Logger, c config.S3) (*storage.S3Client, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	if c.Endpoint != "" {
		awsConfig.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: c.Endpoint, SigningRegion: c.Region}, nil
			},
		)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = c.Endpoint != ""
	})
	return storage.NewS3Client(logger, client, manager.NewUploader(client)), nil
}
