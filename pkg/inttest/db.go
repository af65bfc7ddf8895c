package inttest

import (
	"log/slog"
	"os"
	"testing"

	"github.com/harryhq/mail-manager/pkg/storage"
	_ "github.com/lib/pq" // postgres driver
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupDB creates a PostgreSQL container. Gorm is connected to the DB and runs the migrations.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	container, err := gnomock.Start(
		postgres.Preset(
			postgres.WithUser("mail", "mail"),
			postgres.WithDatabase("test_mail"),
		),
	)
	require.NoError(t, err, "failed to start DB")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop DB") })

	db, err := storage.NewDatabase(newTestLogger(), storage.PostgresqlConfig{
		Host:         container.Host,
		Port:         container.DefaultPort(),
		Username:     "mail",
		Password:     "mail",
		DatabaseName: "test_mail",
	})
	require.NoError(t, err, "failed to setup DB")
	return db
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
