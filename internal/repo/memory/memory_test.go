package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLogs_ConcurrentCheckInsOpenOneLog(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		ok, dupes atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.CheckLogs.CreateOpen(ctx, &domain.CheckLog{PassID: "pass-1", VisitorID: "v-1"})
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, repo.ErrDuplicate):
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 31, dupes.Load())

	open, err := store.CheckLogs.List(ctx, domain.CheckLogFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCheckLogs_CloseThenReopen(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	first := &domain.CheckLog{PassID: "pass-1", VisitorID: "v-1", Notes: "lobby"}
	require.NoError(t, store.CheckLogs.CreateOpen(ctx, first))

	closed, err := store.CheckLogs.Close(ctx, "pass-1", time.Now(), "guard-1", nil)
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutTime)
	assert.False(t, closed.CheckOutTime.Before(closed.CheckInTime))
	assert.Equal(t, "lobby", closed.Notes)
	assert.Equal(t, "guard-1", *closed.CheckOutBy)

	_, err = store.CheckLogs.Close(ctx, "pass-1", time.Now(), "guard-1", nil)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, store.CheckLogs.CreateOpen(ctx, &domain.CheckLog{PassID: "pass-1", VisitorID: "v-1"}))
}

func TestAppointments_ConditionalWrites(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	a := &domain.Appointment{VisitorID: "v", HostID: "h", Purpose: "demo", ScheduledTime: "10:00 AM", Status: domain.StatusPending}
	require.NoError(t, store.Appointments.Create(ctx, a))

	a.Status = domain.StatusApproved
	require.NoError(t, store.Appointments.UpdateIfStatus(ctx, a, domain.StatusPending))

	a.Status = domain.StatusRejected
	assert.ErrorIs(t, store.Appointments.UpdateIfStatus(ctx, a, domain.StatusPending), repo.ErrConflict)
	assert.ErrorIs(t, store.Appointments.DeleteIfStatus(ctx, a.ID, domain.StatusPending), repo.ErrConflict)
	assert.ErrorIs(t, store.Appointments.DeleteIfStatus(ctx, "missing", domain.StatusPending), repo.ErrNotFound)
}

func TestUsers_UniqueEmailIgnoresCase(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	require.NoError(t, store.Users.Create(ctx, &domain.User{Email: "a@example.com"}))
	err := store.Users.Create(ctx, &domain.User{Email: "A@Example.com"})
	field, ok := repo.DuplicateField(err)
	require.True(t, ok)
	assert.Equal(t, "email", field)
}

func TestPasses_UniqueNumber(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	require.NoError(t, store.Passes.Create(ctx, &domain.Pass{PassNumber: "VP-1"}))
	assert.ErrorIs(t, store.Passes.Create(ctx, &domain.Pass{PassNumber: "VP-1"}), repo.ErrDuplicate)
}

func TestRateCounter_Window(t *testing.T) {
	db := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }
	c := db.Store().RateLimits
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := c.Allow(ctx, "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := c.Allow(ctx, "ip:1", 3, time.Minute)
	assert.False(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = c.Allow(ctx, "ip:1", 3, time.Minute)
	assert.True(t, allowed)
}

func TestRateCounter_CleanupExpired(t *testing.T) {
	db := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }
	c := db.Store().RateLimits
	ctx := context.Background()

	_, err := c.Allow(ctx, "otp:ip:1", 3, time.Minute)
	require.NoError(t, err)
	_, err = c.Allow(ctx, "otp:ip:2", 3, time.Hour)
	require.NoError(t, err)

	n, err := c.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	now = now.Add(2 * time.Minute)
	n, err = c.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Len(t, db.rate, 1)
	assert.Contains(t, db.rate, "otp:ip:2")
}

func TestAnalytics_TopHostsOnlyEmployees(t *testing.T) {
	db := New()
	store := db.Store()
	ctx := context.Background()

	emp := &domain.User{Email: "e@example.com", Role: domain.RoleEmployee}
	adm := &domain.User{Email: "a@example.com", Role: domain.RoleAdmin}
	require.NoError(t, store.Users.Create(ctx, emp))
	require.NoError(t, store.Users.Create(ctx, adm))
	for _, host := range []string{emp.ID, emp.ID, adm.ID} {
		require.NoError(t, store.Appointments.Create(ctx, &domain.Appointment{HostID: host, ScheduledTime: "10:00 AM", Status: domain.StatusPending}))
	}

	hosts, err := store.Analytics.TopHosts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, emp.ID, hosts[0].HostID)
	assert.EqualValues(t, 2, hosts[0].Count)

	times, err := store.Analytics.PopularTimes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.EqualValues(t, 3, times[0].Count)
}
