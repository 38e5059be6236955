// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// attempts holds the recent request times of one client, oldest first.
type attempts struct {
	mu    sync.Mutex
	times []time.Time
}

// RateLimiter throttles the sign-up and sign-in endpoints per client IP
// with a sliding window, so passwords cannot be guessed at line rate.
// Rejected requests get a JSON 429 with a Retry-After header.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*attempts
	limit   int           // requests allowed per window
	window  time.Duration // sliding window length
	stopCh  chan struct{}
}

// NewRateLimiter allows limit requests per window for each client. A
// background goroutine drops idle clients until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) entry(key string) *attempts {
	rl.mu.RLock()
	a, ok := rl.clients[key]
	rl.mu.RUnlock()
	if ok {
		return a
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if a, ok = rl.clients[key]; !ok {
		a = &attempts{}
		rl.clients[key] = a
	}
	return a
}

// take records a request for key. When the window is full it records
// nothing and reports how long until the oldest request leaves it.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	a := rl.entry(key)
	now := time.Now()
	cutoff := now.Add(-rl.window)

	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.times[:0]
	for _, ts := range a.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	a.times = kept

	if len(a.times) >= rl.limit {
		return false, a.times[0].Add(rl.window).Sub(now)
	}
	a.times = append(a.times, now)
	return true, 0
}

// cleanup removes clients with no request inside the window.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, a := range rl.clients {
		a.mu.Lock()
		idle := len(a.times) == 0 || !a.times[len(a.times)-1].After(cutoff)
		a.mu.Unlock()

		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects a client that has used up its window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
