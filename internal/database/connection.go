// internal/database/connection.go
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/javajoker/collab-backend/internal/config"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/utils"
)

// Initialize opens the postgres connection pool. Errors are translated so
// unique violations reach the repository as gorm.ErrDuplicatedKey.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := utils.GetGormLogger(cfg.SlowQueryThreshold())
	gormLogger = gormLogger.LogMode(utils.GormLogLevel(cfg.LogLevel))

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	utils.LogInfo("Database connection established", logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		utils.LogError(err, "Error getting underlying sql.DB", nil)
		return
	}

	if err := sqlDB.Close(); err != nil {
		utils.LogError(err, "Error closing database connection", nil)
		return
	}
	utils.LogInfo("Database connection closed", nil)
}

func RunMigrations(db *gorm.DB) error {
	utils.LogInfo("Running database migrations", nil)

	// gen_random_uuid() defaults
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.CreatorProfile{},
		&models.HotelProfile{},
		&models.HotelListing{},
		&models.Collaboration{},
		&models.Deliverable{},
		&models.Message{},
		&models.Rating{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	utils.LogInfo("Database migrations completed", nil)
	return nil
}

// activePairIndex enforces at most one pending or accepted collaboration per
// (listing, creator) pair.
const activePairIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_collaborations_active_pair
	ON collaborations(listing_id, creator_id)
	WHERE status IN ('pending', 'accepted')`

func createIndexes(db *gorm.DB) error {
	// Required for correctness; failure aborts the migration.
	if err := db.Exec(activePairIndex).Error; err != nil {
		return err
	}

	indexes := []string{
		// Collaboration indexes
		"CREATE INDEX IF NOT EXISTS idx_collaborations_creator_status ON collaborations(creator_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_collaborations_hotel_status ON collaborations(hotel_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_collaborations_updated_at ON collaborations(updated_at DESC)",

		// Audit log indexes
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_collab_position ON chat_messages(collaboration_id, created_at, seq)",
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_unread ON chat_messages(collaboration_id) WHERE read_at IS NULL",

		// Ledger and notification indexes
		"CREATE INDEX IF NOT EXISTS idx_deliverables_collab_created ON collaboration_deliverables(collaboration_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications(recipient_user_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			utils.Logger.WithFields(logrus.Fields{
				"index": strings.Join(strings.Fields(index), " "),
				"error": err.Error(),
			}).Warn("Failed to create index")
		}
	}

	return nil
}
