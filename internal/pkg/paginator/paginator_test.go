package paginator

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulexconde/surveychat/internal/pkg/store"
)

type row struct {
	ID   string `db:"id"`
	Kind string `db:"kind"`
}

func newRows(t *testing.T, n int) store.Datastorer[row] {
	t.Helper()

	db, err := sqlx.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE entries (id TEXT PRIMARY KEY, kind TEXT NOT NULL)`)
	require.NoError(t, err)

	for i := range n {
		kind := "even"
		if i%2 == 1 {
			kind = "odd"
		}
		_, err := db.Exec(`INSERT INTO entries (id, kind) VALUES (?, ?)`, fmt.Sprintf("r%02d", i), kind)
		require.NoError(t, err)
	}

	return store.NewDataStore[row](db, "entries")
}

func TestPaginateQuery(t *testing.T) {
	p := NewPaginator(newRows(t, 25))
	ctx := context.Background()
	query := "SELECT id, kind FROM entries WHERE kind = ? ORDER BY id"

	tests := []struct {
		name      string
		page      int
		limit     int
		wantItems int
		wantPage  int
		wantPrev  *int
		wantNext  *int
	}{
		{"first page", 1, 5, 5, 1, nil, intPtr(2)},
		{"middle page", 2, 5, 5, 2, intPtr(1), intPtr(3)},
		{"last page", 3, 5, 3, 3, intPtr(2), nil},
		{"page below one", 0, 5, 5, 1, nil, intPtr(2)},
		{"default limit", 1, 0, 10, 1, nil, intPtr(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.PaginateQuery(ctx, query, []any{"even"}, tt.page, tt.limit)
			require.NoError(t, err)

			assert.Len(t, res.Items, tt.wantItems)
			assert.Equal(t, 13, res.TotalItems)
			assert.Equal(t, tt.wantPage, res.CurrentPage)
			assert.Equal(t, tt.wantPrev, res.PrevPage)
			assert.Equal(t, tt.wantNext, res.NextPage)
		})
	}
}

func TestPaginateQuery_Empty(t *testing.T) {
	p := NewPaginator(newRows(t, 0))

	res, err := p.PaginateQuery(context.Background(), "SELECT id, kind FROM entries", nil, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalPages)
	assert.Nil(t, res.NextPage)
}

func intPtr(i int) *int { return &i }
