// Package prefs keeps per-user language preferences in memory.
// Preferences do not survive a restart.
package prefs

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// resetKeywords are the language names that clear a stored preference
// instead of setting one. Matched case-insensitively after trimming.
var resetKeywords = map[string]struct{}{
	"default": {},
	"reset":   {},
	"english": {},
	"en":      {},
	"":        {},
}

const (
	resetConfirmation = "Okay, I'll use the default language (English) for your prompts."
	setConfirmation   = "Okay, I will write my answers in %s for your future prompts."
)

// Store holds the language instruction for each user. Telegram handlers run
// on separate goroutines, so access is guarded by a mutex.
type Store struct {
	logger *slog.Logger

	mu           sync.RWMutex
	instructions map[int64]string
}

// NewStore creates an empty preference store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:       logger.With("component", "prefs_store"),
		instructions: make(map[int64]string),
	}
}

// Get returns the stored language instruction for the user, or the empty
// string if none is set.
func (s *Store) Get(userID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instructions[userID]
}

// Set stores or clears the language preference for the user and returns the
// confirmation text to send back. Reset keywords delete any stored entry;
// any other name is stored as "Answer me in {name}.". Idempotent.
func (s *Store) Set(userID int64, language string) string {
	language = strings.TrimSpace(language)

	if _, reset := resetKeywords[strings.ToLower(language)]; reset {
		s.mu.Lock()
		delete(s.instructions, userID)
		s.mu.Unlock()

		s.logger.Info("Reset language preference", "user_id", userID)
		return resetConfirmation
	}

	s.mu.Lock()
	s.instructions[userID] = fmt.Sprintf("Answer me in %s.", language)
	s.mu.Unlock()

	s.logger.Info("Set language preference", "user_id", userID, "language", language)
	return fmt.Sprintf(setConfirmation, language)
}
