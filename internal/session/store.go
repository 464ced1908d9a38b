package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/imagescan/internal/model"
)

// ErrSessionNotFound is returned when no live session matches the presented
// token or token pair. Unknown, expired, and mismatched pairs are all
// reported identically so a caller cannot distinguish them.
var ErrSessionNotFound = errors.New("session not found")

// Store is an in-memory session registry safe for concurrent use.
//
// Sessions become invisible the instant their expiry passes, even before the
// sweeper removes them. All lookups therefore check liveness against the
// store's clock, never just map membership.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	ttl      time.Duration
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the store's time source. Used by tests to control
// expiry deterministically.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store whose sessions live for ttl after creation.
func NewStore(ttl time.Duration, opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new session owning the given stored image and returns
// it with freshly generated session and image-independent tokens.
func (s *Store) Create(imageID, storageLocation, mimeType string, size int64) model.Session {
	now := s.now()
	sess := model.Session{
		SessionID:       uuid.NewString(),
		ImageID:         imageID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
		StorageLocation: storageLocation,
		MIMEType:        mimeType,
		Size:            size,
	}

	s.mu.Lock()
	s.sessions[sess.SessionID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the live session for the given session token.
func (s *Store) Get(sessionID string) (model.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || !sess.Live(s.now()) {
		return model.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// GetForImage returns the live session matching both tokens. A session whose
// image token differs from the presented one is treated as absent.
func (s *Store) GetForImage(sessionID, imageID string) (model.Session, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if sess.ImageID != imageID {
		return model.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes the session and returns the removed record so the caller
// can reclaim its artifact. Deleting an unknown session returns
// ErrSessionNotFound; deleting an expired but not yet swept session
// succeeds, since reclaiming it early is harmless.
func (s *Store) Delete(sessionID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return sess, nil
}

// Expired returns the sessions whose expiry has passed at the given instant.
func (s *Store) Expired(now time.Time) []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []model.Session
	for _, sess := range s.sessions {
		if !sess.Live(now) {
			expired = append(expired, sess)
		}
	}
	return expired
}

// Len returns the number of sessions currently held, including expired ones
// the sweeper has not yet removed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
