package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisDeduper(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	d := NewRedisDeduper(client, time.Minute)

	added, err := d.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = d.Add(ctx, "user", "k1")
	if err != nil || added {
		t.Fatalf("second add should be rejected: added=%v err=%v", added, err)
	}
	added, err = d.Add(ctx, "other", "k1")
	if err != nil || !added {
		t.Fatalf("keys are per user: added=%v err=%v", added, err)
	}
	if ttl := mr.TTL(dedupeKey("user", "k1")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}

	if err := d.Remove(ctx, "user", "k1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err = d.Add(ctx, "user", "k1")
	if err != nil || !added {
		t.Fatalf("add after remove: added=%v err=%v", added, err)
	}

	mr.FastForward(2 * time.Minute)
	added, err = d.Add(ctx, "other", "k1")
	if err != nil || !added {
		t.Fatalf("expired key should be accepted again: added=%v err=%v", added, err)
	}
}
