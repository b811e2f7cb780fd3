package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harumcare/harumcare-backend/internal/domain/campaign"
	"github.com/harumcare/harumcare-backend/internal/domain/content"
	"github.com/harumcare/harumcare-backend/internal/domain/donation"
	"github.com/harumcare/harumcare-backend/internal/domain/user"
	"github.com/harumcare/harumcare-backend/internal/platform/envutil"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	dbUser := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "harumcare")
	sslMode := envutil.String("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", dbUser, password, host, port, name, sslMode)

	serviceLog.Info("Connecting to Postgres", "host", host, "db", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

// AutoMigrate creates or updates every table the backend owns. Donation
// deletion is cascaded in application code when a campaign is removed; the
// schema itself does not enforce it.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&user.User{},
		&campaign.Campaign{},
		&donation.Donation{},
		&content.News{},
		&content.Blog{},
	)
}
