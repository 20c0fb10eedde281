package migrations

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPendingSkipsExecutedAndSorts(t *testing.T) {
	list := []Migration{{ID: "0003_c"}, {ID: "0001_a"}, {ID: "0002_b"}}

	got := Pending(list, []MigrationRecord{{ID: "0002_b"}})

	require.Len(t, got, 2)
	assert.Equal(t, "0001_a", got[0].ID)
	assert.Equal(t, "0003_c", got[1].ID)
	assert.Empty(t, Pending(list, []MigrationRecord{{ID: "0001_a"}, {ID: "0002_b"}, {ID: "0003_c"}}))
}

func TestAllCoversBothDialects(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range All() {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		assert.NotEmpty(t, m.Statements["mysql"], m.ID)
		assert.NotEmpty(t, m.Statements["postgres"], m.ID)
	}
}

func TestRunMigrationsAppliesOnlyPending(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	list := []Migration{
		{ID: "0001_a", Statements: map[string][]string{"mysql": {"CREATE TABLE a (id INT)"}}},
		{ID: "0002_b", Statements: map[string][]string{"mysql": {"CREATE TABLE b (id INT)", "CREATE INDEX ib ON b (id)"}}},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `schema_migrations`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `schema_migrations`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "applied_at"}).AddRow("0001_a", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX ib ON b (id)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `schema_migrations`")).
		WithArgs("0002_b", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), db, list))
	assert.NoError(t, mock.ExpectationsWereMet())
}
