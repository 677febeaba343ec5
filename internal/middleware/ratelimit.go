// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterCache is a per-key rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	cache *limiterCache[string]
}

// NewRateLimiter creates a per-IP limiter allowing rps requests per second
// with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{cache: newLimiterCache[string](rps, burst)}
}

// Middleware rejects requests over the limit with a JSON 429.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !rl.cache.get(ip).Allow() {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginProtection combines per-IP rate limiting on the login route with
// account lockout after repeated failures.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.Mutex
	attempts map[string]*loginAttempt

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration
	now               func() time.Time
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	IPRateLimit       float64
	IPBurst           int
	MaxFailedAttempts int
	// LockoutDuration doubles with each lockout, up to a day.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginProtectionConfig allows a login every two seconds per IP and
// locks an account for 15 minutes after 5 failures.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a new login protection instance.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	return &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		attempts:          make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               time.Now,
	}
}

// IsAccountLocked reports whether email is locked and for how long.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[email]
	if !ok {
		return false, 0
	}
	if now := lp.now(); now.Before(a.lockedUntil) {
		return true, a.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailedAttempt counts a failure and reports whether the account is
// now locked.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	a, ok := lp.attempts[email]
	if !ok {
		a = &loginAttempt{}
		lp.attempts[email] = a
	}
	if a.count == 0 || now.Sub(a.firstFailed) > lp.attemptWindow {
		a.count, a.firstFailed = 0, now
	}
	a.count++
	if a.count < lp.maxFailedAttempts {
		return false, 0
	}

	lockDuration := lp.lockoutDuration
	for i := 0; i < a.lockouts && lockDuration < 24*time.Hour; i++ {
		lockDuration *= 2
	}
	lockDuration = min(lockDuration, 24*time.Hour)

	a.lockedUntil = now.Add(lockDuration)
	a.lockouts++
	a.count = 0
	slog.Warn("account locked after failed logins", "email", email, "lockouts", a.lockouts, "duration", lockDuration)
	return true, lockDuration
}

// RecordSuccessfulLogin clears failed attempt tracking for an account.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.attempts, email)
	lp.mu.Unlock()
}

// Cleanup drops expired entries. Run it periodically.
func (lp *LoginProtection) Cleanup() {
	if lp.ipLimiters.clearIfExceeds(10000) {
		slog.Info("cleared login rate limiters")
	}

	now := lp.now()
	lp.mu.Lock()
	for email, a := range lp.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.attemptWindow {
			delete(lp.attempts, email)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits POST requests per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := ClientIP(r)
			if !lp.ipLimiters.get(ip).Allow() {
				slog.Warn("login rate limit exceeded", "ip", ip)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many login attempts. Please wait and try again.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
