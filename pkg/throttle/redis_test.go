package throttle_test

import (
	"context"
	"testing"
	"time"

	"todo-backend/internal/testutil"
	"todo-backend/pkg/throttle"

	"github.com/alicebob/miniredis/v2"
	"github.com/matryer/is"
)

func newRedisGate(t *testing.T) (*throttle.RedisGate, *throttle.StoreGate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := throttle.NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	store := throttle.NewStoreGate(testutil.NewDB(t))
	return throttle.NewRedisGate(rdb, store, 24*time.Hour), store, mr
}

func TestRedisGate(t *testing.T) {
	ctx := context.Background()
	at := func(hh, mm int) time.Time { return time.Date(2024, 6, 1, hh, mm, 0, 0, time.UTC) }

	t.Run("first send is allowed", func(t *testing.T) {
		is := is.New(t)
		gate, _, _ := newRedisGate(t)

		ok, err := gate.ShouldSend(ctx, "u1", "overdue-summary", at(14, 1), 4*time.Hour)
		is.NoErr(err)
		is.True(ok)
	})

	t.Run("water slot sent once", func(t *testing.T) {
		is := is.New(t)
		gate, store, _ := newRedisGate(t)
		category := "water-reminder:14:00"

		ok, err := gate.ShouldSend(ctx, "u1", category, at(14, 1), 2*time.Hour)
		is.NoErr(err)
		is.True(ok)
		is.NoErr(gate.RecordSent(ctx, "u1", category, at(14, 1)))

		ok, err = gate.ShouldSend(ctx, "u1", category, at(14, 3), 2*time.Hour)
		is.NoErr(err)
		is.True(!ok)

		// the database log is written alongside Redis
		last, err := store.LastSent(ctx, "u1", category)
		is.NoErr(err)
		is.True(last != nil)
		is.True(last.Equal(at(14, 1)))
	})

	t.Run("interval boundary", func(t *testing.T) {
		is := is.New(t)
		gate, _, _ := newRedisGate(t)
		is.NoErr(gate.RecordSent(ctx, "u1", "overdue-summary", at(10, 0)))

		ok, err := gate.ShouldSend(ctx, "u1", "overdue-summary", at(13, 59), 4*time.Hour)
		is.NoErr(err)
		is.True(!ok)

		ok, err = gate.ShouldSend(ctx, "u1", "overdue-summary", at(14, 0), 4*time.Hour)
		is.NoErr(err)
		is.True(ok)

		ok, err = gate.ShouldSend(ctx, "u2", "overdue-summary", at(10, 30), 4*time.Hour)
		is.NoErr(err)
		is.True(ok)
	})

	t.Run("key expires after retention", func(t *testing.T) {
		is := is.New(t)
		gate, _, mr := newRedisGate(t)
		is.NoErr(gate.RecordSent(ctx, "u1", "c", at(10, 0)))
		is.True(mr.Exists("throttle:u1:c"))

		mr.FastForward(25 * time.Hour)
		is.True(!mr.Exists("throttle:u1:c"))
	})

	t.Run("unreadable value counts as never sent", func(t *testing.T) {
		is := is.New(t)
		gate, _, mr := newRedisGate(t)
		is.NoErr(mr.Set("throttle:u1:c", "not-a-number"))

		ok, err := gate.ShouldSend(ctx, "u1", "c", at(10, 0), time.Hour)
		is.NoErr(err)
		is.True(ok)
	})

	t.Run("redis down is an error", func(t *testing.T) {
		is := is.New(t)
		gate, _, mr := newRedisGate(t)
		mr.Close()

		_, err := gate.ShouldSend(ctx, "u1", "c", at(10, 0), time.Hour)
		is.True(err != nil)
	})
}

func TestNewRedisClient_BadURL(t *testing.T) {
	is := is.New(t)
	_, err := throttle.NewRedisClient(context.Background(), "http://not-redis")
	is.True(err != nil)
}
