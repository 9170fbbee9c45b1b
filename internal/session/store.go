// Package session keeps the last uploaded preview per browser session so the
// slider page can show it again without a re-upload.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-medscan/pkg/models"
)

const keyPrefix = "image_preview:"

// Store reads and writes SessionImageState per session id. A missing entry
// is reported as found=false, not as an error.
type Store interface {
	Get(ctx context.Context, sessionID string) (models.SessionImageState, bool, error)
	Set(ctx context.Context, sessionID string, state models.SessionImageState) error
	Close() error
}

// Key is the storage key for a session's preview.
func Key(sessionID string) string {
	return keyPrefix + sessionID
}

func validateID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is empty")
	}
	return nil
}

func encodeState(state models.SessionImageState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (models.SessionImageState, error) {
	var state models.SessionImageState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.SessionImageState{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}
