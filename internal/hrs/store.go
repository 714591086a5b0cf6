package hrs

import (
	"context"
	"fmt"
	"time"

	"hutsync/internal/shared/constants"
	"hutsync/pkg/cache"
)

// SessionStore caches a login session across invocations so not every run
// pays the four-step handshake.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Clear(ctx context.Context) error
}

type redisSessionStore struct {
	cache cache.Service
	hutID int
	ttl   time.Duration
}

// NewRedisSessionStore backs the session by Redis with the session TTL; an
// entry that outlives the TTL simply expires and forces a fresh login.
func NewRedisSessionStore(cacheService cache.Service, hutID int, ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = constants.TTL_HRS_SESSION
	}
	return &redisSessionStore{
		cache: cacheService,
		hutID: hutID,
		ttl:   ttl,
	}
}

func (s *redisSessionStore) Load(ctx context.Context) (*Session, error) {
	var sess Session
	if err := s.cache.Get(ctx, constants.HRSSessionKey(s.hutID), &sess); err != nil {
		if err == cache.ErrCacheMiss {
			return nil, fmt.Errorf("no cached session")
		}
		return nil, err
	}
	if sess.Cookies == nil {
		sess.Cookies = make(map[string]string)
	}
	return &sess, nil
}

func (s *redisSessionStore) Save(ctx context.Context, sess *Session) error {
	return s.cache.Set(ctx, constants.HRSSessionKey(s.hutID), sess, s.ttl)
}

func (s *redisSessionStore) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, constants.HRSSessionKey(s.hutID))
}
