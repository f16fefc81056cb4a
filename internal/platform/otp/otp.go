// Package otp issues and checks single-use six digit codes keyed by email.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Entry is what a Store keeps per email: the bcrypt hash of the code and its deadline.
type Entry struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e Entry) Expired(now time.Time) bool { return !now.Before(e.ExpiresAt) }

type Store interface {
	Put(ctx context.Context, key string, e Entry) error
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Delete reports whether this call removed the entry.
	Delete(ctx context.Context, key string) (bool, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Generate returns a uniformly random code in 100000..999999.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func Hash(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return string(b), nil
}

func Matches(hash, code string) bool {
	if hash == "" || code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

type Verifier struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewVerifier(store Store, ttl time.Duration) *Verifier {
	return &Verifier{store: store, ttl: ttl, now: time.Now}
}

func (v *Verifier) TTL() time.Duration { return v.ttl }

func key(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Issue generates a code for email, stores its hash with the default TTL and returns the plain code.
func (v *Verifier) Issue(ctx context.Context, email string) (string, time.Time, error) {
	code, err := Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	expires, err := v.Store(ctx, email, code, v.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, expires, nil
}

// Store replaces any pending code for email. A ttl of zero or less stores an entry that is already expired.
func (v *Verifier) Store(ctx context.Context, email, code string, ttl time.Duration) (time.Time, error) {
	hash, err := Hash(code)
	if err != nil {
		return time.Time{}, err
	}
	expires := v.now().Add(ttl)
	if ttl <= 0 {
		expires = v.now()
	}
	if err := v.store.Put(ctx, key(email), Entry{Hash: hash, ExpiresAt: expires}); err != nil {
		return time.Time{}, fmt.Errorf("store otp: %w", err)
	}
	return expires, nil
}

// Verify consumes the pending code for email when it matches. A wrong code leaves
// the entry in place; an expired one is evicted.
func (v *Verifier) Verify(ctx context.Context, email, code string) (bool, error) {
	k := key(email)
	e, ok, err := v.store.Get(ctx, k)
	if err != nil {
		return false, fmt.Errorf("load otp: %w", err)
	}
	if !ok {
		return false, nil
	}
	if e.Expired(v.now()) {
		if _, err := v.store.Delete(ctx, k); err != nil {
			return false, fmt.Errorf("evict otp: %w", err)
		}
		return false, nil
	}
	if !Matches(e.Hash, strings.TrimSpace(code)) {
		return false, nil
	}
	// a concurrent verify may have consumed it first
	removed, err := v.store.Delete(ctx, k)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return removed, nil
}
