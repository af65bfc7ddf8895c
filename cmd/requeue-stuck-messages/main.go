// Operational tool: republish send requests for email messages that are stuck. A message in
// status=ready whose send request was lost (RabbitMQ outage, crash between commit and publish)
// sits there forever as nothing will requeue it. Run with -dry-run first to see what would be
// requeued, then without to apply.
//
// Messages in status=pending are only requeued with -include-pending. A consumer died mid-send
// for those, so the SMTP server may already have accepted the message and requeueing may send it
// twice.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/harryhq/mail-manager/pkg/queue"
	"github.com/harryhq/mail-manager/pkg/storage"
	"gorm.io/gorm"
)

// sendRequest mirrors the payload the send consumer expects on email.SendQueue.
type sendRequest struct {
	ID uint `json:"id"`
}

func main() {
	olderThan := flag.Duration("older-than", time.Hour, "Only requeue messages last updated before now minus this duration")
	dryRun := flag.Bool("dry-run", false, "Log planned requeues and do not publish")
	includePending := flag.Bool("include-pending", false, "Also requeue messages in status=pending (may send twice)")
	flag.Parse()

	logger := slog.Default()

	db, err := openDB(logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	statuses := []model.EmailMessageStatus{model.EmailMessageStatusReady}
	if *includePending {
		statuses = append(statuses, model.EmailMessageStatusPending)
	}

	cutoff := time.Now().Add(-*olderThan)
	var messages []model.EmailMessage
	err = db.Where("status IN ? AND updated_at < ?", statuses, cutoff).Order("id").Find(&messages).Error
	if err != nil {
		logger.Error("failed to find stuck messages", "error", err)
		os.Exit(1)
	}

	if len(messages) == 0 {
		logger.Info("no stuck messages; nothing to do", "cutoff", cutoff)
		os.Exit(0)
	}

	for _, message := range messages {
		logger.Info("stuck message", "id", message.ID, "status", message.Status, "updatedAt", message.UpdatedAt)
	}

	if *dryRun {
		logger.Info("dry run: no requests published", "count", len(messages))
		os.Exit(0)
	}

	publisher, err := openPublisher()
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close publisher", "error", err)
		}
	}()

	requeued := 0
	for _, message := range messages {
		if err := requeue(db, publisher, message); err != nil {
			logger.Error("failed to requeue message", "id", message.ID, "error", err)
			continue
		}
		requeued++
	}
	logger.Info("requeue completed", "requeued", requeued, "total", len(messages))
}

func requeue(db *gorm.DB, publisher *queue.Publisher, message model.EmailMessage) error {
	if message.Status == model.EmailMessageStatusPending {
		// the send consumer only accepts status=ready, the status guard keeps us from
		// clobbering a message the consumer finished in the meantime
		result := db.Model(&model.EmailMessage{}).
			Where("id = ? AND status = ?", message.ID, model.EmailMessageStatusPending).
			Update("status", model.EmailMessageStatusReady)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("message %d is no longer status=pending", message.ID)
		}
	}
	return publisher.Publish(context.Background(), email.SendQueue, sendRequest{ID: message.ID})
}

func openDB(logger *slog.Logger) (*gorm.DB, error) {
	host := getEnv("DATABASE_HOST", "")
	portStr := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USERNAME", "")
	password := getEnv("DATABASE_PASSWORD", "")
	name := getEnv("DATABASE_NAME", "")

	if host == "" || user == "" || name == "" {
		return nil, fmt.Errorf("set DATABASE_HOST, DATABASE_USERNAME, DATABASE_NAME (and DATABASE_PASSWORD, DATABASE_PORT)")
	}
	port, _ := strconv.Atoi(portStr)
	if port == 0 {
		port = 5432
	}

	return storage.NewDatabase(logger, storage.PostgresqlConfig{
		Host:         host,
		Port:         port,
		Username:     user,
		Password:     password,
		DatabaseName: name,
	})
}

func openPublisher() (*queue.Publisher, error) {
	host := getEnv("RABBITMQ_HOST", "")
	portStr := getEnv("RABBITMQ_PORT", "5672")
	user := getEnv("RABBITMQ_USERNAME", "")
	password := getEnv("RABBITMQ_PASSWORD", "")

	if host == "" || user == "" {
		return nil, fmt.Errorf("set RABBITMQ_HOST, RABBITMQ_USERNAME (and RABBITMQ_PASSWORD, RABBITMQ_PORT)")
	}
	port, _ := strconv.Atoi(portStr)
	if port == 0 {
		port = 5672
	}

	return queue.NewPublisher(fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
