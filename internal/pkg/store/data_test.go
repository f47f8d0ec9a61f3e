package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulexconde/surveychat/pkg/fault"
)

type widget struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Size      int       `db:"size"`
	CreatedAt time.Time `db:"created_at"`
}

type widgetDTO struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Size      int       `db:"size"`
	CreatedAt time.Time `db:"created_at"`
}

func (w widgetDTO) PrimaryKey() string { return w.ID }

type widgetPatch struct {
	Name *string `db:"name"`
	Size *int    `db:"size"`
}

func (widgetPatch) PrimaryKey() string { return "" }

func newWidgetStore(t *testing.T) *dataStore[widget] {
	t.Helper()

	db, err := sqlx.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE widgets (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE, size INTEGER NOT NULL, created_at DATETIME NOT NULL)`)
	require.NoError(t, err)

	return NewDataStore[widget](db, "widgets")
}

func TestDataStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newWidgetStore(t)

	created, err := s.Create(ctx, widgetDTO{ID: "w1", Name: "bolt", Size: 3, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.Equal(t, "w1", created.ID)
	assert.Equal(t, 3, created.Size)

	got, err := s.Get(ctx, "SELECT id, name, size, created_at FROM widgets WHERE name = ?", "bolt")
	require.NoError(t, err)
	assert.Equal(t, "w1", got.ID)

	_, err = s.Get(ctx, "SELECT id, name, size, created_at FROM widgets WHERE name = ?", "nut")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestDataStore_CreateUniqueViolation(t *testing.T) {
	ctx := context.Background()
	s := newWidgetStore(t)

	_, err := s.Create(ctx, widgetDTO{ID: "w1", Name: "bolt", Size: 1, CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = s.Create(ctx, widgetDTO{ID: "w1", Name: "other", Size: 1, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, fault.ErrUniqueViolation)

	_, err = s.Create(ctx, widgetDTO{ID: "w2", Name: "bolt", Size: 1, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, fault.ErrUniqueViolation)
}

func TestDataStore_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	s := newWidgetStore(t)

	_, err := s.Create(ctx, widgetDTO{ID: "w1", Name: "bolt", Size: 3, CreatedAt: time.Now()})
	require.NoError(t, err)

	size := 9
	updated, err := s.Update(ctx, "w1", widgetPatch{Size: &size})
	require.NoError(t, err)
	assert.Equal(t, "bolt", updated.Name)
	assert.Equal(t, 9, updated.Size)

	_, err = s.Update(ctx, "w404", widgetPatch{Size: &size})
	assert.ErrorIs(t, err, fault.ErrNotFound)

	_, err = s.Update(ctx, "w1", widgetPatch{})
	assert.EqualError(t, err, "no fields to update")
}

func TestDataStore_SelectExec(t *testing.T) {
	ctx := context.Background()
	s := newWidgetStore(t)

	for i, name := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, widgetDTO{ID: name, Name: name, Size: i, CreatedAt: time.Now()})
		require.NoError(t, err)
	}

	rows, err := s.Select(ctx, "SELECT id, name, size, created_at FROM widgets WHERE size > ? ORDER BY id", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)

	none, err := s.Select(ctx, "SELECT id, name, size, created_at FROM widgets WHERE size > ?", 100)
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := s.QueryRow(ctx, "SELECT COUNT(*) FROM widgets")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	affected, err := s.Exec(ctx, "UPDATE widgets SET size = size + 1 WHERE id IN (?, ?)", "a", "b")
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
}

func TestDataStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newWidgetStore(t)

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO widgets (id, name, size, created_at) VALUES ('w1', 'bolt', 1, CURRENT_TIMESTAMP)`); err != nil {
			return err
		}
		return fault.ErrNotFound
	})
	assert.ErrorIs(t, err, fault.ErrNotFound)

	count, err := s.QueryRow(ctx, "SELECT COUNT(*) FROM widgets")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM surveys"))
	assert.Zero(t, n)
}
