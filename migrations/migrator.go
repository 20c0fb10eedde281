// Package migrations applies the ordered schema changes and records each applied id.
package migrations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/caltrack/utils"
)

// Migration is one schema step. Statements are keyed by gorm dialector name.
type Migration struct {
	ID         string
	Statements map[string][]string
}

// MigrationRecord marks a migration as executed.
type MigrationRecord struct {
	ID        string    `gorm:"primaryKey;size:191"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

var recordTable = map[string]string{
	"mysql": "CREATE TABLE IF NOT EXISTS `schema_migrations` (" +
		"`id` VARCHAR(191) NOT NULL PRIMARY KEY, " +
		"`applied_at` DATETIME(3) NOT NULL" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	"postgres": `CREATE TABLE IF NOT EXISTS "schema_migrations" (` +
		`"id" VARCHAR(191) PRIMARY KEY, ` +
		`"applied_at" TIMESTAMPTZ NOT NULL)`,
}

// Run executes every registered migration that has no record yet, in id order.
func Run(ctx context.Context, db *gorm.DB) error {
	return RunMigrations(ctx, db, All())
}

// RunMigrations executes the pending subset of list.
func RunMigrations(ctx context.Context, db *gorm.DB, list []Migration) error {
	dialect := db.Dialector.Name()
	ddl, ok := recordTable[dialect]
	if !ok {
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	db = db.WithContext(ctx)

	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []MigrationRecord
	if err := db.Find(&executed).Error; err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	for _, m := range Pending(list, executed) {
		stmts, ok := m.Statements[dialect]
		if !ok {
			return fmt.Errorf("migration %s has no %s statements", m.ID, dialect)
		}
		utils.Logger.Info("running migration", zap.String("id", m.ID), zap.String("dialect", dialect))
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to run migration %s: %w", m.ID, err)
			}
		}
		record := MigrationRecord{ID: m.ID, AppliedAt: time.Now().UTC()}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
		utils.Logger.Info("completed migration", zap.String("id", m.ID))
	}
	return nil
}

// Pending returns the migrations of list without a record, sorted by id.
func Pending(list []Migration, executed []MigrationRecord) []Migration {
	done := make(map[string]bool, len(executed))
	for _, r := range executed {
		done[r.ID] = true
	}
	out := make([]Migration, 0, len(list))
	for _, m := range list {
		if !done[m.ID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
