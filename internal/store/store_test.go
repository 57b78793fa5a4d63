package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-dev/jizhang/internal/model"
)

func sampleTxns() []model.Transaction {
	return []model.Transaction{
		{
			ID:       "txn-001",
			Type:     model.TypeIncome,
			Amount:   decimal.RequireFromString("1000"),
			Category: "salary",
			Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:       "txn-002",
			Type:     model.TypeExpense,
			Amount:   decimal.RequireFromString("200.25"),
			Category: "rent",
			Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Note:     "march",
		},
	}
}

// backends returns a fresh instance of every KV implementation.
func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	fileKV, err := NewFileKV(filepath.Join(dir, "files"))
	require.NoError(t, err)

	sqliteKV, err := OpenSQLite(filepath.Join(dir, "db", "jizhang.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		BackendFile:   fileKV,
		BackendSQLite: sqliteKV,
		BackendMemory: NewMemoryKV(),
	}
}

func TestKV_GetMissing(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := kv.Get(context.Background(), "nothing")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, v)
		})
	}
}

func TestKV_PutReplaces(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, "k", []byte("first")))
			require.NoError(t, kv.Put(ctx, "k", []byte("second")))

			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "second", string(v))
		})
	}
}

func TestKV_UTF8(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, DefaultKey, []byte(`[{"category":"餐饮"}]`)))
			v, _, err := kv.Get(ctx, DefaultKey)
			require.NoError(t, err)
			assert.Equal(t, `[{"category":"餐饮"}]`, string(v))
		})
	}
}

func TestAdapter_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(kv, "", nil)
			require.NoError(t, a.Save(ctx, sampleTxns()))

			res := a.Load(ctx)
			assert.False(t, res.Malformed)
			require.Len(t, res.Records, 2)

			n := model.NewNormalizer()
			got, err := n.Normalize(res.Records[1], model.Lenient)
			require.NoError(t, err)
			want := sampleTxns()[1]
			assert.Equal(t, want.ID, got.ID)
			assert.True(t, want.Amount.Equal(got.Amount))
			assert.Equal(t, want.Note, got.Note)
			assert.True(t, want.Date.Equal(got.Date))
		})
	}
}

func TestAdapter_LoadEmpty(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), "", nil)
	res := a.Load(context.Background())
	assert.Empty(t, res.Records)
	assert.False(t, res.Malformed)
}

func TestAdapter_LoadMalformed(t *testing.T) {
	ctx := context.Background()
	for _, stored := range []string{"{not json", `{"a":1}`, `"text"`, `[1,2]`} {
		kv := NewMemoryKV()
		require.NoError(t, kv.Put(ctx, DefaultKey, []byte(stored)))

		res := NewAdapter(kv, DefaultKey, nil).Load(ctx)
		assert.Empty(t, res.Records, "stored %q", stored)
		assert.True(t, res.Malformed, "stored %q", stored)
	}
}

type brokenKV struct{ MemoryKV }

func (*brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (*brokenKV) Put(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestAdapter_BackendErrors(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(&brokenKV{}, "", nil)

	res := a.Load(ctx)
	assert.Empty(t, res.Records)
	assert.False(t, res.Malformed)

	err := a.Save(ctx, sampleTxns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving ledger")
}

func TestFileKV_Layout(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Put(context.Background(), "jizhang/../x", []byte("[]")))
	assert.Equal(t, filepath.Join(dir, "jizhang_.._x.json"), kv.Path("jizhang/../x"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "jizhang_.._x.json", entries[0].Name())
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	kv, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, DefaultKey, []byte("[]")))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(path)
	require.NoError(t, err)
	defer kv.Close()

	v, ok, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range Backends {
		path := filepath.Join(dir, backend)
		if backend == BackendSQLite {
			path = filepath.Join(dir, "ledger.db")
		}
		kv, err := Open(backend, path)
		require.NoError(t, err, backend)
		require.NoError(t, kv.Close())
	}

	_, err := Open("redis", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}
