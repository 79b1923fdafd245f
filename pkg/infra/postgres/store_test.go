package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

// fakeDB mimics the key/value table in memory and records statements.
type fakeDB struct {
	rows  map[string]string
	execs []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		f.rows[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		delete(f.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	v, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := &fakeDB{rows: map[string]string{}}
	store := NewPostgresStore(db)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(db.execs[0], "CREATE TABLE IF NOT EXISTS storefront_kv") {
		t.Errorf("unexpected migration: %s", db.execs[0])
	}

	if _, ok, err := store.Get(ctx, "storefront.user"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "storefront.user", `{"id":"user123"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := store.Get(ctx, "storefront.user")
	if err != nil || !ok || v != `{"id":"user123"}` {
		t.Errorf("unexpected get: %q %v %v", v, ok, err)
	}
	if err := store.Remove(ctx, "storefront.user"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "storefront.user"); ok {
		t.Error("expected key to be removed")
	}
}

type brokenDB struct{}

func (brokenDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("connection reset")
}

func (brokenDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("connection reset")}
}

func TestPostgresStoreErrors(t *testing.T) {
	store := NewPostgresStore(brokenDB{})
	ctx := context.Background()

	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Error("expected get error")
	}
	if err := store.Set(ctx, "k", "v"); err == nil {
		t.Error("expected set error")
	}
	if err := store.Remove(ctx, "k"); err == nil {
		t.Error("expected remove error")
	}
}

func TestPostgresStoreIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := Connect(ctx, url)
	if err != nil {
		t.Skip("Postgres not available, skipping integration test")
	}
	defer pool.Close()

	store := NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	key := "storefront.test." + time.Now().Format("150405.000000")
	defer store.Remove(ctx, key)

	if err := store.Set(ctx, key, "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, key, "2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := store.Get(ctx, key)
	if err != nil || !ok || v != "2" {
		t.Errorf("expected upserted value 2, got %q %v %v", v, ok, err)
	}
}
