package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

type UserID string

// DefaultUserID is used when a caller does not specify a user
const DefaultUserID UserID = "default"

// Memory is an immutable, user scoped text record
type Memory struct {
	ID        MemoryID  `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	UserID    UserID    `json:"userId" yaml:"userId"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewMemory builds a Memory with a fresh ID. Empty userID falls back to
// DefaultUserID.
func NewMemory(content string, userID UserID, now time.Time) (*Memory, error) {
	if content == "" {
		return nil, goerr.New("content is required", goerr.T(ErrTagValidation))
	}
	if userID == "" {
		userID = DefaultUserID
	}

	return &Memory{
		ID:        NewMemoryID(),
		Content:   content,
		UserID:    userID,
		Timestamp: now,
	}, nil
}

// BackendStatus reports reachability of the durable store
type BackendStatus string

const (
	BackendConnected   BackendStatus = "connected"
	BackendUnavailable BackendStatus = "unavailable"
)
