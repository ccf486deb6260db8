package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/yungbote/persistsvc/internal/config"
  "github.com/yungbote/persistsvc/internal/platform/logger"
  "github.com/yungbote/persistsvc/internal/types"
  "github.com/yungbote/persistsvc/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

// NewPostgresService connects to the store. The full DSN from
// database-connection/DATABASE_URL wins; otherwise the DSN is assembled
// from the POSTGRES_* environment variables.
func NewPostgresService(cfg *config.Config, log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  dsn := cfg.DatabaseConnection
  if dsn == "" {
    postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
    postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
    postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
    postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
    postgresName := utils.GetEnv("POSTGRES_NAME", "techresidents", log)
    postgresSSLMode := utils.GetEnv("POSTGRES_SSLMODE", "disable", log)
    dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName, postgresSSLMode)
  }

  log.Info("Connecting to Postgres...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
    TranslateError:                           true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  if err := AutoMigrateAll(s.db); err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}

// AutoMigrateAll migrates the full table set on any gorm dialect. Tests
// reuse it against in-memory SQLite.
func AutoMigrateAll(gdb *gorm.DB) error {
  return gdb.AutoMigrate(
    &types.Chat{},
    &types.ChatSession{},
    &types.ChatUser{},
    &types.Topic{},
    &types.ChatMessageFormatType{},
    &types.ChatMessage{},
    &types.ChatPersistJob{},
    &types.ChatMinute{},
    &types.ChatSpeakingMarker{},
    &types.ChatTag{},
    &types.ChatArchiveJob{},
    &types.ChatHighlightSession{},
  )
}
