package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go-medscan/internal/storage"
	"go-medscan/pkg/models"
)

var sampleState = models.SessionImageState{Format: "png", Preview: "89504e470d0a1a0a"}

type fakeBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	putErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: make(map[string][]byte)}
}

func (f *fakeBlobs) Get(ctx context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.data[name]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return data, nil
}

func (f *fakeBlobs) Put(ctx context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.data[name] = data
	return nil
}

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing session", func(t *testing.T) {
		state, ok, err := store.Get(ctx, "never-written")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ok || !state.IsEmpty() {
			t.Errorf("Expected empty state, got %+v (found=%v)", state, ok)
		}
	})

	t.Run("round trip is exact", func(t *testing.T) {
		if err := store.Set(ctx, "session-a", sampleState); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		state, ok, err := store.Get(ctx, "session-a")
		if err != nil || !ok {
			t.Fatalf("Expected stored state, got found=%v err=%v", ok, err)
		}
		if state != sampleState {
			t.Errorf("Expected %+v, got %+v", sampleState, state)
		}
	})

	t.Run("later upload overwrites", func(t *testing.T) {
		next := models.SessionImageState{Format: "jpeg", Preview: "ffd8ffe0"}
		if err := store.Set(ctx, "session-a", next); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		state, _, _ := store.Get(ctx, "session-a")
		if state != next {
			t.Errorf("Expected %+v, got %+v", next, state)
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "session-b")
		if err != nil || ok {
			t.Errorf("Expected session-b to be empty, got found=%v err=%v", ok, err)
		}
	})

	t.Run("empty session id", func(t *testing.T) {
		if err := store.Set(ctx, " ", sampleState); err == nil {
			t.Error("Expected error for empty session id")
		}
		if _, _, err := store.Get(ctx, ""); err == nil {
			t.Error("Expected error for empty session id")
		}
	})
}

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "image_preview:abc" {
		t.Errorf("Expected image_preview:abc, got %s", got)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	if err := store.Set(ctx, "old", sampleState); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, ok, _ := store.Get(ctx, "old"); !ok {
		t.Error("Expected entry before TTL")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Error("Expected entry to expire after TTL")
	}

	if err := store.Set(ctx, "new", sampleState); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Expected expired entry to be swept, got %d entries", store.Len())
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", i%5)
			_ = store.Set(ctx, id, sampleState)
			_, _, _ = store.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	if store.Len() != 5 {
		t.Errorf("Expected 5 sessions, got %d", store.Len())
	}
}

func TestBlobStore(t *testing.T) {
	storeContract(t, NewBlobStore(newFakeBlobs(), time.Hour))
}

func TestBlobStore_Expiry(t *testing.T) {
	blobs := newFakeBlobs()
	store := NewBlobStore(blobs, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	if err := store.Set(ctx, "s", sampleState); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := blobs.data["image_preview:s"]; !ok {
		t.Fatal("Expected blob under image_preview:s")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := store.Get(ctx, "s"); ok || err != nil {
		t.Errorf("Expected expired entry to read as empty, got found=%v err=%v", ok, err)
	}
}

func TestBlobStore_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("storage unavailable")

	blobs := newFakeBlobs()
	blobs.getErr = boom
	if _, _, err := NewBlobStore(blobs, time.Hour).Get(ctx, "s"); !errors.Is(err, boom) {
		t.Errorf("Expected read fault to surface, got %v", err)
	}

	blobs = newFakeBlobs()
	blobs.putErr = boom
	if err := NewBlobStore(blobs, time.Hour).Set(ctx, "s", sampleState); !errors.Is(err, boom) {
		t.Errorf("Expected write fault to surface, got %v", err)
	}

	blobs = newFakeBlobs()
	blobs.data[Key("s")] = []byte("{not json")
	if _, _, err := NewBlobStore(blobs, time.Hour).Get(ctx, "s"); err == nil {
		t.Error("Expected decode error for corrupt blob")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	store, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	// Isolate from earlier runs against the same server.
	ctx := context.Background()
	store.client.Del(ctx, Key("session-a"), Key("session-b"), Key("never-written"))

	storeContract(t, store)

	ttl, err := store.client.TTL(ctx, Key("session-a")).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Expected TTL within (0, 1m], got %s", ttl)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("Expected error for unreachable redis")
	}
}
