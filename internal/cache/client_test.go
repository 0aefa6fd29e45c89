package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewClientFromRedis(rdb, "test"), mr
}

func TestSetGet(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "ns", "id", "value", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := client.Get(ctx, "ns", "id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != "value" {
		t.Fatalf("expected hit with %q, got ok=%v value=%q", "value", ok, got)
	}
}

func TestGetMiss(t *testing.T) {
	client, _ := newTestClient(t)

	_, ok, err := client.Get(context.Background(), "ns", "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "alpha", "id", "value", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	if !mr.Exists("test_alpha:id") {
		t.Fatal("expected key test_alpha:id to exist")
	}

	if _, ok, _ := client.Get(ctx, "beta", "id"); ok {
		t.Fatal("same id in another namespace must miss")
	}
}

func TestExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "ns", "id", "value", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, ok, _ := client.Get(ctx, "ns", "id"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	if err := client.SetJSON(ctx, "ns", "id", payload{Name: "x", N: 3}, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}

	var out payload
	ok, err := client.GetJSON(ctx, "ns", "id", &out)
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	if !ok || out.Name != "x" || out.N != 3 {
		t.Fatalf("unexpected payload: ok=%v %+v", ok, out)
	}
}

func TestGetJSONPoisonedEntryIsAMiss(t *testing.T) {
	client, mr := newTestClient(t)

	if err := mr.Set("test_ns:id", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var out map[string]any
	ok, err := client.GetJSON(context.Background(), "ns", "id", &out)
	if err != nil {
		t.Fatalf("parse failures must not be errors: %v", err)
	}
	if ok {
		t.Fatal("parse failures must read as misses")
	}
}

func TestGetManyPreservesOrder(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "ns", "a", "1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Set(ctx, "ns", "c", "3", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	values, err := client.GetMany(ctx, "ns", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(values))
	}
	if values[0] == nil || *values[0] != "1" {
		t.Fatalf("slot 0: %v", values[0])
	}
	if values[1] != nil {
		t.Fatalf("slot 1 must be nil, got %q", *values[1])
	}
	if values[2] == nil || *values[2] != "3" {
		t.Fatalf("slot 2: %v", values[2])
	}
}

func TestDelete(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "ns", "id", "value", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Delete(ctx, "ns", "id"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := client.Get(ctx, "ns", "id"); ok {
		t.Fatal("expected entry to be gone")
	}

	// Deleting an absent entry is not an error.
	if err := client.Delete(ctx, "ns", "id"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}
