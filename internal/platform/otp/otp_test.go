package otp

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestVerifySingleUse(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(NewMemoryStore(), 10*time.Minute)

	code, _, err := v.Issue(ctx, "Jane@Example.com")
	require.NoError(t, err)

	ok, err := v.Verify(ctx, "jane@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(ctx, "jane@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok, "second use must fail")
}

func TestVerifyZeroTTLFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	v := NewVerifier(store, time.Minute)

	_, err := v.Store(ctx, "a@b.com", "123456", 0)
	require.NoError(t, err)

	ok, err := v.Verify(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, store.Len(), "expired entry is evicted")
}

func TestVerifyMismatchKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	v := NewVerifier(store, time.Minute)

	_, err := v.Store(ctx, "a@b.com", "123456", time.Minute)
	require.NoError(t, err)

	ok, err := v.Verify(ctx, "a@b.com", "654321")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	ok, err = v.Verify(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyUnknownEmail(t *testing.T) {
	v := NewVerifier(NewMemoryStore(), time.Minute)
	ok, err := v.Verify(context.Background(), "nobody@b.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentVerifyConsumesOnce(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(NewMemoryStore(), time.Minute)
	_, err := v.Store(ctx, "a@b.com", "123456", time.Minute)
	require.NoError(t, err)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := v.Verify(ctx, "a@b.com", "123456"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	require.NoError(t, store.Put(ctx, "old", Entry{Hash: "x", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, store.Put(ctx, "new", Entry{Hash: "x", ExpiresAt: now.Add(time.Minute)}))

	n, err := store.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := store.Get(ctx, "new")
	assert.True(t, ok)
}
