package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-medscan/internal/storage"
	"go-medscan/pkg/models"
)

// blobEnvelope adds an expiry to the stored state; blob storage has no TTL.
type blobEnvelope struct {
	State     models.SessionImageState `json:"state"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// BlobStore keeps session previews as JSON blobs, one per session.
type BlobStore struct {
	blobs storage.BlobStorage
	ttl   time.Duration
	now   func() time.Time
}

func NewBlobStore(blobs storage.BlobStorage, ttl time.Duration) *BlobStore {
	return &BlobStore{blobs: blobs, ttl: ttl, now: time.Now}
}

func (s *BlobStore) Get(ctx context.Context, sessionID string) (models.SessionImageState, bool, error) {
	if err := validateID(sessionID); err != nil {
		return models.SessionImageState{}, false, err
	}

	data, err := s.blobs.Get(ctx, Key(sessionID))
	if errors.Is(err, storage.ErrBlobNotFound) {
		return models.SessionImageState{}, false, nil
	}
	if err != nil {
		return models.SessionImageState{}, false, err
	}

	var env blobEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.SessionImageState{}, false, fmt.Errorf("decode session blob: %w", err)
	}
	if !env.ExpiresAt.IsZero() && !s.now().Before(env.ExpiresAt) {
		return models.SessionImageState{}, false, nil
	}
	return env.State, true, nil
}

func (s *BlobStore) Set(ctx context.Context, sessionID string, state models.SessionImageState) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	env := blobEnvelope{State: state}
	if s.ttl > 0 {
		env.ExpiresAt = s.now().Add(s.ttl).UTC()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode session blob: %w", err)
	}
	return s.blobs.Put(ctx, Key(sessionID), data)
}

func (s *BlobStore) Close() error {
	return nil
}
