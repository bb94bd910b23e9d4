package database

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_ArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationFiles_ScheduleConstraints(t *testing.T) {
	body, err := fs.ReadFile(migrationFiles, "migrations/000001_create_schedule_entries.up.sql")
	require.NoError(t, err)

	sql := string(body)
	assert.Contains(t, sql, "UNIQUE INDEX IF NOT EXISTS idx_schedule_entries_user_id")
	assert.Contains(t, sql, "UNIQUE INDEX IF NOT EXISTS idx_schedule_entries_date_slot ON schedule_entries (date, slot)")
}

func TestReportMigration(t *testing.T) {
	version := func() (uint, bool, error) { return 3, false, nil }

	tests := []struct {
		name    string
		upErr   error
		version func() (uint, bool, error)
		wantErr bool
		wantLog string
		level   logrus.Level
	}{
		{name: "applied", version: version, wantLog: "Database migrated to version 3 (dirty=false)", level: logrus.InfoLevel},
		{name: "no change", upErr: migrate.ErrNoChange, version: version, wantLog: "Database schema is up to date", level: logrus.InfoLevel},
		{name: "failed", upErr: errors.New("syntax error"), version: version, wantErr: true},
		{
			name:    "version unreadable",
			version: func() (uint, bool, error) { return 0, false, errors.New("closed") },
			wantLog: "Failed to read schema version: closed",
			level:   logrus.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()

			err := reportMigration(log, tt.upErr, tt.version)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.upErr)
				assert.Empty(t, hook.AllEntries())
				return
			}

			require.NoError(t, err)
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, tt.wantLog, hook.LastEntry().Message)
			assert.Equal(t, tt.level, hook.LastEntry().Level)
		})
	}
}
