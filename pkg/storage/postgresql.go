package storage

import (
	"fmt"
	"log/slog"

	"github.com/harryhq/mail-manager/pkg/model"
	slogGorm "github.com/orandin/slog-gorm"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PostgresqlConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

// NewDatabase connects Gorm to PostgreSQL and runs the migrations. Gorm logs through the given
// logger and traces queries via the global OpenTelemetry provider.
func NewDatabase(logger *slog.Logger, c PostgresqlConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable", c.Host, c.Username, c.Password, c.DatabaseName, c.Port)

	databaseConfig := gorm.Config{
		Logger: slogGorm.New(
			slogGorm.WithHandler(logger.Handler()),
		),
	}

	db, err := gorm.Open(postgres.Open(dsn), &databaseConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %s", err)
	}

	if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(c.DatabaseName))); err != nil {
		return nil, fmt.Errorf("failed to install the tracing plugin: %s", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Org{},

		&model.EmailMessage{},
		&model.EmailMessageAttachment{},
		&model.EmailMessageWebhook{},

		&model.GlobalSetting{},
		&model.Event{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
