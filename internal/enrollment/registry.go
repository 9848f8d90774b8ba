package enrollment

import (
	"sync"
	"time"
)

const defaultSessionTTL = 2 * time.Hour

// registry holds live sessions keyed by enrollment token. Sessions are
// page-load scoped, so idle ones are evicted on access instead of by a
// background sweeper.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func newRegistry(ttl time.Duration) *registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *registry) get(token string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[token]
	if !ok {
		return nil, false
	}
	now := r.now().UTC()
	if sess.seenBefore(now.Add(-r.ttl)) {
		delete(r.sessions, token)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

func (r *registry) put(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.Token()] = sess
}

func (r *registry) drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}
