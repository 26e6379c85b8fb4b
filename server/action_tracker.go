package server

import (
	"sync"
	"time"
)

// processedAction is one accepted game.action keyed by its requestId.
type processedAction struct {
	ConnID    string
	RoomID    string
	Action    string
	Amount    int
	Timestamp time.Time
}

// ActionTracker remembers requestIds of accepted actions so a client retry
// is not applied twice.
type ActionTracker struct {
	mu               sync.RWMutex
	processedActions map[string]processedAction
	retention        time.Duration
	stopCleanup      chan struct{}
	stopOnce         sync.Once
}

// NewActionTracker starts a tracker that forgets ids after retention.
func NewActionTracker(retention time.Duration) *ActionTracker {
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	at := &ActionTracker{
		processedActions: make(map[string]processedAction),
		retention:        retention,
		stopCleanup:      make(chan struct{}),
	}
	go at.cleanupLoop()
	return at
}

// IsDuplicate reports whether requestID was already accepted, from any
// connection. An empty id is never a duplicate.
func (at *ActionTracker) IsDuplicate(requestID string) bool {
	if requestID == "" {
		return false
	}

	at.mu.RLock()
	defer at.mu.RUnlock()
	_, exists := at.processedActions[requestID]
	return exists
}

func (at *ActionTracker) MarkProcessed(requestID, connID, roomID, action string, amount int) {
	if requestID == "" {
		return
	}

	at.mu.Lock()
	defer at.mu.Unlock()
	at.processedActions[requestID] = processedAction{
		ConnID:    connID,
		RoomID:    roomID,
		Action:    action,
		Amount:    amount,
		Timestamp: time.Now(),
	}
}

func (at *ActionTracker) ProcessedCount() int {
	at.mu.RLock()
	defer at.mu.RUnlock()
	return len(at.processedActions)
}

// Cleanup removes entries older than the retention window.
func (at *ActionTracker) Cleanup() int {
	at.mu.Lock()
	defer at.mu.Unlock()

	cutoff := time.Now().Add(-at.retention)
	removed := 0
	for id, action := range at.processedActions {
		if action.Timestamp.Before(cutoff) {
			delete(at.processedActions, id)
			removed++
		}
	}
	return removed
}

func (at *ActionTracker) cleanupLoop() {
	ticker := time.NewTicker(at.retention)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			at.Cleanup()
		case <-at.stopCleanup:
			return
		}
	}
}

func (at *ActionTracker) Stop() {
	at.stopOnce.Do(func() { close(at.stopCleanup) })
}
