package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// SchemaVersion describes the current database schema version. It must be incremented if a manual migration is needed.
var SchemaVersion uint64 = 1

// SysStat stores the current database schema version and the timestamp when it was applied.
type SysStat struct {
	MigratedAt    time.Time `gorm:"column:migrated_at"`
	SchemaVersion uint64    `gorm:"primaryKey,column:schema_version"`
}

// GormLogger is a custom logger for Gorm, making it use slog
type GormLogger struct {
	SlowThreshold           time.Duration
	SourceField             string
	IgnoreErrRecordNotFound bool
	Debug                   bool
	Silent                  bool

	prefix string
}

func NewLogger(slowThreshold time.Duration, debug bool) *GormLogger {
	return &GormLogger{
		SlowThreshold:           slowThreshold,
		Debug:                   debug,
		IgnoreErrRecordNotFound: true,
		Silent:                  false,
		SourceField:             "src",
		prefix:                  "GORM-SQL: ",
	}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	if level == logger.Silent {
		l.Silent = true
	} else {
		l.Silent = false
	}
	return l
}

func (l *GormLogger) Info(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.InfoContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Warn(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.WarnContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Error(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.ErrorContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	attrs := []any{
		"rows", rows,
		"duration", elapsed,
	}

	if l.SourceField != "" {
		attrs = append(attrs, l.SourceField, utils.FileWithLineNum())
	}

	if err != nil && !(errors.Is(err, gorm.ErrRecordNotFound) && l.IgnoreErrRecordNotFound) {
		attrs = append(attrs, "error", err)
		slog.ErrorContext(ctx, l.prefix+sql, attrs...)
		return
	}

	if l.SlowThreshold != 0 && elapsed > l.SlowThreshold {
		slog.WarnContext(ctx, l.prefix+sql, attrs...)
		return
	}

	if l.Debug {
		slog.DebugContext(ctx, l.prefix+sql, attrs...)
	}
}

// NewDatabase creates a new database connection and returns a Gorm database instance.
func NewDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormDb *gorm.DB
	var err error

	switch cfg.Type {
	case config.DatabaseMySQL:
		gormDb, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}

		sqlDB, _ := gormDb.DB()
		sqlDB.SetConnMaxLifetime(time.Minute * 5)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		err = sqlDB.Ping() // This DOES open a connection if necessary. This makes sure the database is accessible
		if err != nil {
			return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
		}
	case config.DatabaseMsSQL:
		gormDb, err = gorm.Open(sqlserver.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlserver database: %w", err)
		}
	case config.DatabasePostgres:
		gormDb, err = gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres database: %w", err)
		}
	case config.DatabaseSQLite:
		if dir := filepath.Dir(cfg.DSN); !strings.Contains(cfg.DSN, ":memory:") && dir != "." {
			if _, err = os.Stat(dir); os.IsNotExist(err) {
				if err = os.MkdirAll(dir, 0700); err != nil {
					return nil, fmt.Errorf("failed to create database base directory: %w", err)
				}
			}
		}
		gormDb, err = gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
			Logger:                                   NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, _ := gormDb.DB()
		sqlDB.SetMaxOpenConns(1)
	}

	return gormDb, nil
}

// SqlRepo is a SQL database repository implementation.
// Currently, it supports MySQL, SQLite, Microsoft SQL and Postgresql database systems.
type SqlRepo struct {
	db *gorm.DB
}

// NewSqlRepository creates a new SqlRepo instance.
func NewSqlRepository(db *gorm.DB) (*SqlRepo, error) {
	repo := &SqlRepo{
		db: db,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

func (r *SqlRepo) migrate() error {
	slog.Debug("running migration: sys-stat", "result", r.db.AutoMigrate(&SysStat{}))
	slog.Debug("running migration: user", "result", r.db.AutoMigrate(&domain.User{}))
	slog.Debug("running migration: asset", "result", r.db.AutoMigrate(&domain.Asset{}))
	slog.Debug("running migration: candle", "result", r.db.AutoMigrate(&domain.Candle{}))
	slog.Debug("running migration: feature set", "result", r.db.AutoMigrate(&domain.FeatureSet{}))
	slog.Debug("running migration: strategy", "result", r.db.AutoMigrate(&domain.Strategy{}))
	slog.Debug("running migration: backtest result", "result", r.db.AutoMigrate(&domain.BacktestResult{}))
	slog.Debug("running migration: signal", "result", r.db.AutoMigrate(&domain.Signal{}))
	slog.Debug("running migration: order", "result", r.db.AutoMigrate(&domain.Order{}))
	slog.Debug("running migration: trade", "result", r.db.AutoMigrate(&domain.Trade{}))
	slog.Debug("running migration: trade analytics", "result", r.db.AutoMigrate(&domain.TradeAnalytics{}))
	slog.Debug("running migration: daily profit", "result", r.db.AutoMigrate(&domain.DailyProfit{}))
	slog.Debug("running migration: monthly summary", "result", r.db.AutoMigrate(&domain.MonthlySummary{}))
	slog.Debug("running migration: audit data", "result", r.db.AutoMigrate(&domain.AuditLogEntry{}))

	existingSysStat := SysStat{}
	r.db.Where("schema_version = ?", SchemaVersion).First(&existingSysStat)
	if existingSysStat.SchemaVersion == 0 {
		sysStat := SysStat{
			MigratedAt:    time.Now(),
			SchemaVersion: SchemaVersion,
		}
		if err := r.db.Create(&sysStat).Error; err != nil {
			return fmt.Errorf("failed to write sysstat entry for schema version %d: %w", SchemaVersion, err)
		}
		slog.Debug("sys-stat entry written", "schema_version", SchemaVersion)
	}

	return nil
}

// notDeleted limits a query to rows that are not soft-deleted.
func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

// region users

// GetUser returns the user with the given id.
// If no user is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetUser(ctx context.Context, id domain.UserId) (*domain.User, error) {
	var user domain.User

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&user).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserIncludeDeleted returns the user with the given id, even if it has been soft-deleted.
func (r *SqlRepo) GetUserIncludeDeleted(ctx context.Context, id domain.UserId) (*domain.User, error) {
	var user domain.User

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByUsername returns the user with the given username.
// If no user is found, an error domain.ErrNotFound is returned.
// If multiple users are found, an error domain.ErrNotUnique is returned.
func (r *SqlRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var users []domain.User

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("username = ?", username).Find(&users).Error
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, domain.ErrNotFound
	}

	if len(users) > 1 {
		return nil, fmt.Errorf("found multiple users with username %s: %w", username, domain.ErrNotUnique)
	}

	user := users[0]

	return &user, nil
}

// GetUserByEmail returns the user with the given email.
// If no user is found, an error domain.ErrNotFound is returned.
// If multiple users are found, an error domain.ErrNotUnique is returned.
func (r *SqlRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var users []domain.User

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("email = ?", email).Find(&users).Error
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, domain.ErrNotFound
	}

	if len(users) > 1 {
		return nil, fmt.Errorf("found multiple users with email %s: %w", email, domain.ErrNotUnique)
	}

	user := users[0]

	return &user, nil
}

// GetAllUsers returns all users that are not soft-deleted.
func (r *SqlRepo) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User

	err := r.db.WithContext(ctx).Scopes(notDeleted).Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

// FindUsers returns all users that match the given search string.
// The search string is matched against the username and email.
func (r *SqlRepo) FindUsers(ctx context.Context, search string) ([]domain.User, error) {
	var users []domain.User

	searchValue := "%" + strings.ToLower(search) + "%"
	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where(r.db.Where("username LIKE ?", searchValue).Or("email LIKE ?", searchValue)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

// SaveUser updates the user with the given id.
// If the id is zero, a new user is created.
func (r *SqlRepo) SaveUser(
	ctx context.Context,
	id domain.UserId,
	updateFunc func(u *domain.User) (*domain.User, error),
) (*domain.User, error) {
	var saved *domain.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.getOrCreateUser(tx, id)
		if err != nil {
			return err // return any error will roll back
		}

		user, err = updateFunc(user)
		if err != nil {
			return err
		}

		user.UpdatedAt = time.Now()
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		saved = user

		// return nil will commit the whole transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *SqlRepo) getOrCreateUser(tx *gorm.DB, id domain.UserId) (*domain.User, error) {
	if id == 0 {
		now := time.Now()
		return &domain.User{
			BaseModel: domain.BaseModel{
				CreatedAt: now,
				UpdatedAt: now,
			},
		}, nil
	}

	var user domain.User

	err := tx.Scopes(notDeleted).Where("id = ?", id).First(&user).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// endregion users

// region audit

// GetAuditEntries returns all audit entries, ordered by timestamp. The oldest entries are listed first.
func (r *SqlRepo) GetAuditEntries(ctx context.Context) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry

	err := r.db.WithContext(ctx).Order("timestamp asc, id asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// GetRecordAuditEntries returns the mutation history of a single record, the oldest entries first.
func (r *SqlRepo) GetRecordAuditEntries(ctx context.Context, table string, recordId uint64) (
	[]domain.AuditLogEntry,
	error,
) {
	var entries []domain.AuditLogEntry

	err := r.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", table, recordId).
		Order("timestamp asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// GetUserAuditEntries returns all audit entries attributed to the given user, the oldest entries first.
func (r *SqlRepo) GetUserAuditEntries(ctx context.Context, userId domain.UserId) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry

	err := r.db.WithContext(ctx).
		Where("changed_by = ?", userId).
		Order("timestamp asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// endregion audit
