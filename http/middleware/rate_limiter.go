package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/xy-planning-network/trailhead/http/responses"
	"golang.org/x/time/rate"
)

const (
	defaultLimit rate.Limit = 5
	defaultBurst            = 20

	visitorTTL = 60 * time.Minute
)

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// A Visitors maps a Visitor to an IP address.
type Visitors struct {
	burst       int
	lastCleanup time.Time
	limit       rate.Limit
	val         map[string]Visitor
	sync.Mutex
}

// NewVisitors constructs a *Visitors limiting each to 5 requests every second with bursts of up to 20.
func NewVisitors() *Visitors { return NewVisitorsLimit(defaultLimit, defaultBurst) }

// NewVisitorsLimit constructs a *Visitors limiting each to limit requests every second
// with bursts of up to burst.
func NewVisitorsLimit(limit rate.Limit, burst int) *Visitors {
	if limit <= 0 {
		limit = defaultLimit
	}

	if burst <= 0 {
		burst = defaultBurst
	}

	return &Visitors{
		burst:       burst,
		lastCleanup: time.Now().UTC(),
		limit:       limit,
		val:         make(map[string]Visitor),
	}
}

// Fetch retrieves the Visitor for the given ip creating a new Visitor if not seen.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.Lock()
	defer vs.Unlock()

	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}

	v.LastSeen = time.Now().UTC()
	vs.val[ip] = v
	return v
}

// Len counts the Visitors tracked.
func (vs *Visitors) Len() int {
	vs.Lock()
	defer vs.Unlock()
	return len(vs.val)
}

// cleanup deletes a Visitor from Visitors if they have not been seen in over an hour.
// cleanup runs at most once a minute.
func (vs *Visitors) cleanup() {
	vs.Lock()
	defer vs.Unlock()

	now := time.Now().UTC()
	if now.Sub(vs.lastCleanup) < time.Minute {
		return
	}
	vs.lastCleanup = now

	for ip, v := range vs.val {
		if now.Sub(v.LastSeen) > visitorTTL {
			delete(vs.val, ip)
		}
	}
}

// RateLimit encloses the Visitors map and serves the http.Handler,
// answering visitors over their limit with the tooManyRequests response of reg.
//
// NOTE: implementation found here:
// https://www.alexedwards.net/blog/how-to-rate-limit-http-requests
//
// If reg is nil, the default responses.Registry answers.
func RateLimit(visitors *Visitors, reg *responses.Registry) Adapter {
	if visitors == nil {
		return NoopAdapter
	}

	if reg == nil {
		reg = responses.Default()
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer visitors.cleanup()

			if !visitors.Fetch(GetIPAddress(r.Header)).Limiter.Allow() {
				reg.Bind(w, r).TooManyRequests(responses.Header("Retry-After", "1"))
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
