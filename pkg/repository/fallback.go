package repository

import (
	"sync"

	"github.com/m-mizutani/recall/pkg/model"
)

// Fallback is a process local, append-only memory list used while the durable
// store is unreachable. Contents are lost when the process exits.
type Fallback struct {
	mu       sync.RWMutex
	memories []*model.Memory
}

// NewFallback creates an empty fallback store
func NewFallback() *Fallback {
	return &Fallback{}
}

// Append adds memory to the end of the list
func (f *Fallback) Append(memory *model.Memory) {
	copied := *memory

	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories = append(f.memories, &copied)
}

// Query returns copies of the user's memories, oldest first
func (f *Fallback) Query(userID model.UserID) []*model.Memory {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]*model.Memory, 0)
	for _, m := range f.memories {
		if m.UserID == userID {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result
}

// Len returns the number of memories held across all users
func (f *Fallback) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.memories)
}
