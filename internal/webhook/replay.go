package webhook

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ReplayGuard remembers verified Mailgun tokens so a redelivered webhook is
// acknowledged without being processed twice.
type ReplayGuard struct {
	ttl    time.Duration
	tokens *cache.Cache
}

// NewReplayGuard keeps tokens for ttl. A non-positive ttl disables the guard.
func NewReplayGuard(ttl time.Duration) *ReplayGuard {
	g := &ReplayGuard{ttl: ttl}
	if ttl > 0 {
		g.tokens = cache.New(ttl, 2*ttl)
	}
	return g
}

// Window is how long a token is remembered.
func (g *ReplayGuard) Window() time.Duration { return g.ttl }

// Claim records token and reports whether it was new.
func (g *ReplayGuard) Claim(token string) bool {
	if g.tokens == nil {
		return true
	}
	return g.tokens.Add(token, struct{}{}, cache.DefaultExpiration) == nil
}

// Release forgets token so the sender's retry is processed.
func (g *ReplayGuard) Release(token string) {
	if g.tokens != nil {
		g.tokens.Delete(token)
	}
}
