package client

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"go.craftchat.dev/craftchat/pkg/auth"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// Session is the cached sign-in state of one account: the Minecraft
// access token plus the player certificate used for signed chat.
type Session struct {
	Username    string
	Profile     uuid.UUID
	AccessToken string
	Certificate *auth.Certificate
}

// RefreshFunc obtains a fresh session for an account. prev is the
// previously cached session, if any, so implementations can rotate a
// refresh token instead of signing in from scratch.
type RefreshFunc func(ctx context.Context, account uuid.UUID, prev *Session) (*Session, error)

const defaultSessionTTL = 12 * time.Hour

// SessionStore caches sessions per account and serializes refreshes,
// so concurrent connects for the same account share a single token
// rotation instead of racing it.
type SessionStore struct {
	ttl     time.Duration
	refresh RefreshFunc

	cache *ttlcache.Cache[uuid.UUID, *Session]
	group singleflight.Group
}

// NewSessionStore returns a store that refreshes sessions with refresh
// and keeps them for ttl (or 12 hours if ttl is zero).
func NewSessionStore(ttl time.Duration, refresh RefreshFunc) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	s := &SessionStore{
		ttl:     ttl,
		refresh: refresh,
		cache:   ttlcache.New[uuid.UUID, *Session](),
	}
	go s.cache.Start() // start ttl eviction once
	return s
}

// Get returns the cached session for account, refreshing it when
// missing or when its certificate is due for rotation. Only one
// refresh per account is in flight at a time.
func (s *SessionStore) Get(ctx context.Context, account uuid.UUID) (*Session, error) {
	// fast path: cached and not due
	var prev *Session
	if item := s.cache.Get(account); item != nil {
		prev = item.Value()
		if prev.Certificate == nil || !prev.Certificate.ShouldRefresh() {
			return prev, nil
		}
	}

	// slow path: one refresh per account, late arrivals share the result
	res, err, _ := s.group.Do(account.String(), func() (any, error) {
		sess, err := s.refresh(ctx, account, prev)
		if err != nil {
			return nil, err
		}
		s.cache.Set(account, sess, s.ttl)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Session), nil
}

// Invalidate drops the cached session for account, forcing the next
// Get to refresh.
func (s *SessionStore) Invalidate(account uuid.UUID) {
	s.cache.Delete(account)
}

// Close stops the store's eviction loop.
func (s *SessionStore) Close() {
	s.cache.Stop()
}
