package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/platform/badge"
	"github.com/diagnosis/visitor-pass/internal/platform/otp"
	"github.com/diagnosis/visitor-pass/internal/platform/qr"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/internal/repo/memory"
	"github.com/diagnosis/visitor-pass/internal/utils"
	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu        sync.Mutex
	created   []notify.AppointmentNotice
	approved  []string
	rejected  []notify.AppointmentNotice
	cancelled []notify.AppointmentNotice
	arrivals  []notify.ArrivalNotice
	codes     map[string]string
}

func (f *fakeNotifier) AppointmentCreated(_ context.Context, n notify.AppointmentNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
}

func (f *fakeNotifier) AppointmentApproved(_ context.Context, _ notify.AppointmentNotice, passID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, passID)
}

func (f *fakeNotifier) AppointmentRejected(_ context.Context, n notify.AppointmentNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, n)
}

func (f *fakeNotifier) AppointmentCancelled(_ context.Context, n notify.AppointmentNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, n)
}

func (f *fakeNotifier) VisitorArrival(_ context.Context, n notify.ArrivalNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arrivals = append(f.arrivals, n)
}

func (f *fakeNotifier) OTPCode(_ context.Context, email, code string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
}

func (f *fakeNotifier) code(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type env struct {
	svc   *Services
	store repo.Store
	notes *fakeNotifier
	now   time.Time
	cfg   *config.Config
}

func (e *env) clock() time.Time { return e.now }

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour},
		OTP:  config.OTPConfig{TTL: 10 * time.Minute},
		Pass: config.PassConfig{DefaultValidity: 24 * time.Hour, NumberAttempts: 3},
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithStore(t, memory.New().Store())
}

func newEnvWithStore(t *testing.T, store repo.Store) *env {
	t.Helper()
	e := &env{
		store: store,
		notes: &fakeNotifier{codes: map[string]string{}},
		now:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		cfg:   testConfig(),
	}
	e.svc = New(Deps{
		Config:   e.cfg,
		Store:    store,
		Notifier: e.notes,
		OTP:      otp.NewVerifier(otp.NewMemoryStore(), e.cfg.OTP.TTL),
		Badges:   badge.NewRenderer(t.TempDir()),
		Now:      e.clock,
	})
	return e
}

func (e *env) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := e.svc.Auth.Register(context.Background(), &domain.CreateUserRequest{
		Email: email, Password: "secret123", FirstName: "Test", LastName: "User", Role: role,
	})
	require.NoError(t, err)
	return u
}

func (e *env) visitor(t *testing.T, email string) *domain.VisitorView {
	t.Helper()
	v, err := e.svc.Visitors.Create(context.Background(), &domain.CreateVisitorRequest{
		FirstName: "Jane", LastName: "Doe", Email: email, Phone: "555-123-4567", Company: "Acme",
	}, "")
	require.NoError(t, err)
	return v
}

func (e *env) appointment(t *testing.T, visitorID, hostID string) *domain.AppointmentView {
	t.Helper()
	a, err := e.svc.Appointments.Create(context.Background(), &domain.CreateAppointmentRequest{
		Visitor: visitorID, Host: hostID, ScheduledDate: "2026-03-10", ScheduledTime: "10:00",
		Purpose: "Meeting", Location: "Lobby",
	})
	require.NoError(t, err)
	return a
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "alice@example.com", domain.RoleEmployee)

	_, err := e.svc.Auth.Login(ctx, &domain.LoginRequest{Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)

	for i := 0; i < 5; i++ {
		_, err := e.svc.Auth.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
	_, err = e.svc.Auth.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	resp, err := e.svc.Auth.Login(ctx, &domain.LoginRequest{Email: " ALICE@example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)

	got, err := e.svc.Auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = e.svc.Users.Update(ctx, u.ID, &domain.UpdateUserRequest{IsActive: utils.Ptr(false)})
	require.NoError(t, err)
	_, err = e.svc.Auth.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
	_, err = e.svc.Auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNoToken)
	_, err = e.svc.Auth.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.user(t, "bob@example.com", domain.RoleSecurity)
	_, err := e.svc.Auth.Register(context.Background(), &domain.CreateUserRequest{
		Email: "BOB@example.com", Password: "secret123", FirstName: "B", LastName: "B",
	})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestAppointments_CreateRequiresEmployeeHost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	guard := e.user(t, "guard@example.com", domain.RoleSecurity)
	v := e.visitor(t, "jane@example.com")

	_, err := e.svc.Appointments.Create(ctx, &domain.CreateAppointmentRequest{
		Visitor: v.ID, Host: guard.ID, ScheduledDate: "2026-03-10", ScheduledTime: "10:00", Purpose: "x",
	})
	assert.ErrorIs(t, err, domain.ErrHostInvalid)

	host := e.user(t, "host@example.com", domain.RoleEmployee)
	_, err = e.svc.Appointments.Create(ctx, &domain.CreateAppointmentRequest{
		Visitor: "00000000-0000-0000-0000-000000000000", Host: host.ID, ScheduledDate: "2026-03-10",
		ScheduledTime: "10:00", Purpose: "x",
	})
	assert.ErrorIs(t, err, domain.ErrVisitorNotFound)

	a := e.appointment(t, v.ID, host.ID)
	assert.Equal(t, domain.StatusPending, a.Status)
	assert.Len(t, e.notes.created, 1)
}

func TestAppointments_Transitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	host := e.user(t, "host@example.com", domain.RoleEmployee)
	v := e.visitor(t, "jane@example.com")
	a := e.appointment(t, v.ID, host.ID)

	approved, err := e.svc.Appointments.Approve(ctx, a.ID, &domain.StatusChangeRequest{}, host.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)
	// no pass yet, so the approval email waits for issuance
	assert.Empty(t, e.notes.approved)

	_, err = e.svc.Appointments.Approve(ctx, a.ID, &domain.StatusChangeRequest{}, host.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	_, err = e.svc.Appointments.Reject(ctx, a.ID, &domain.StatusChangeRequest{}, host.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	pass, err := e.svc.Passes.Issue(ctx, &domain.CreatePassRequest{Visitor: v.ID, Appointment: &a.ID}, host.ID, qr.FormJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{pass.ID}, e.notes.approved)

	rejected := e.appointment(t, v.ID, host.ID)
	_, err = e.svc.Appointments.Reject(ctx, rejected.ID, &domain.StatusChangeRequest{Notes: "busy"}, host.ID)
	require.NoError(t, err)
	assert.Len(t, e.notes.rejected, 1)
}

func TestAppointments_GenericUpdateStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	host := e.user(t, "host@example.com", domain.RoleEmployee)
	v := e.visitor(t, "jane@example.com")
	status := func(st domain.AppointmentStatus) *domain.UpdateAppointmentRequest {
		return &domain.UpdateAppointmentRequest{Status: &st}
	}

	pending := e.appointment(t, v.ID, host.ID)
	for _, st := range []domain.AppointmentStatus{domain.StatusApproved, domain.StatusRejected} {
		_, err := e.svc.Appointments.Update(ctx, pending.ID, status(st), v.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition, st)
	}
	got, err := e.svc.Appointments.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.ApprovedBy)

	rejected := e.appointment(t, v.ID, host.ID)
	_, err = e.svc.Appointments.Reject(ctx, rejected.ID, &domain.StatusChangeRequest{}, host.ID)
	require.NoError(t, err)
	cancelled, err := e.svc.Appointments.Update(ctx, rejected.ID, status(domain.StatusCancelled), host.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	completed := e.appointment(t, v.ID, host.ID)
	_, err = e.svc.Appointments.Approve(ctx, completed.ID, &domain.StatusChangeRequest{}, host.ID)
	require.NoError(t, err)
	_, err = e.svc.Appointments.Update(ctx, completed.ID, status(domain.StatusCompleted), host.ID)
	require.NoError(t, err)
	cancelled, err = e.svc.Appointments.Update(ctx, completed.ID, status(domain.StatusCancelled), host.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = e.svc.Appointments.Update(ctx, completed.ID, status(domain.StatusPending), host.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestAppointments_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	host := e.user(t, "host@example.com", domain.RoleEmployee)
	v := e.visitor(t, "jane@example.com")

	pending := e.appointment(t, v.ID, host.ID)
	require.NoError(t, e.svc.Appointments.Delete(ctx, pending.ID))
	_, err := e.svc.Appointments.Get(ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)

	approved := e.appointment(t, v.ID, host.ID)
	_, err = e.svc.Appointments.Approve(ctx, approved.ID, &domain.StatusChangeRequest{}, host.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, e.svc.Appointments.Delete(ctx, approved.ID), domain.ErrAppointmentCannotDelete)

	assert.ErrorIs(t, e.svc.Appointments.Delete(ctx, pending.ID), domain.ErrAppointmentNotFound)
	assert.ErrorIs(t, e.svc.Appointments.Delete(ctx, "not-a-uuid"), domain.ErrInvalidID)
}

func TestPasses_IssueDefaultsAndValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v := e.visitor(t, "jane@example.com")

	p, err := e.svc.Passes.Issue(ctx, &domain.CreatePassRequest{Visitor: v.ID}, "", qr.FormJSON)
	require.NoError(t, err)
	assert.Regexp(t, `^VP-[0-9A-Z]+-[0-9A-Z]{6}$`, p.PassNumber)
	assert.True(t, p.ValidFrom.Equal(e.now))
	assert.True(t, p.ValidUntil.Equal(e.now.Add(24*time.Hour)))
	assert.True(t, p.Valid)
	assert.Contains(t, p.QRCodeImage, "data:image/png;base64,")

	number, err := qr.ParsePayload(p.QRCode)
	require.NoError(t, err)
	assert.Equal(t, p.PassNumber, number)

	from := e.now
	until := e.now.Add(-time.Hour)
	_, err = e.svc.Passes.Issue(ctx, &domain.CreatePassRequest{Visitor: v.ID, ValidFrom: &from, ValidUntil: &until}, "", qr.FormJSON)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.svc.Passes.Issue(ctx, &domain.CreatePassRequest{Visitor: "00000000-0000-0000-0000-000000000000"}, "", qr.FormJSON)
	assert.ErrorIs(t, err, domain.ErrVisitorNotFound)

	verified, err := e.svc.Passes.VerifyByNumber(ctx, p.PassNumber)
	require.NoError(t, err)
	assert.Equal(t, p.ID, verified.ID)

	_, err = e.svc.Passes.Update(ctx, p.ID, &domain.UpdatePassRequest{IsActive: utils.Ptr(false)})
	require.NoError(t, err)
	_, err = e.svc.Passes.VerifyByNumber(ctx, p.PassNumber)
	assert.ErrorIs(t, err, domain.ErrPassExpiredOrInactive)
	_, err = e.svc.Passes.VerifyByNumber(ctx, "VP-NOPE-000000")
	assert.ErrorIs(t, err, domain.ErrPassNotFound)
}

func TestPasses_UpdateWindowRefreshesQR(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v := e.visitor(t, "jane@example.com")
	p, err := e.svc.Passes.Issue(ctx, &domain.CreatePassRequest{Visitor: v.ID}, "", qr.FormJSON)
	require.NoError(t, err)
	before := p.QRCode

	until := e.now.Add(48 * time.Hour)
	updated, err := e.svc.Passes.Update(ctx, p.ID, &domain.UpdatePassRequest{ValidUntil: &until})
	require.NoError(t, err)
	assert.NotEqual(t, before, updated.QRCode)
	assert.Contains(t, updated.QRCode, p.PassNumber)
}

// collidingPasses rejects the first n creates as pass number duplicates.
type collidingPasses struct {
	repo.PassRepository
	n     int
	tries int
}

func (c *collidingPasses) Create(ctx context.Context, p *domain.Pass) error {
	c.tries++
	if c.tries <= c.n {
		return &repo.DuplicateError{Field: "passNumber"}
	}
	return c.PassRepository.Create(ctx, p)
}

func TestPasses_IssueRetriesNumberCollisions(t *testing.T) {
	tests := []struct {
		name       string
		collisions int
		wantErr    bool
	}{
		{"succeeds after two collisions", 2, false},
		{"gives up after every attempt collides", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New().Store()
			colliding := &collidingPasses{PassRepository: store.Passes, n: tt.collisions}
			store.Passes = colliding
			e := newEnvWithStore(t, store)
			v := e.visitor(t, "jane@example.com")

			_, err := e.svc.Passes.Issue(context.Background(), &domain.CreatePassRequest{Visitor: v.ID}, "", qr.FormJSON)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrDuplicate)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, min(tt.collisions+1, 3), colliding.tries)
		})
	}
}

// countingUsers records GetByID calls per id.
type countingUsers struct {
	repo.UserRepository
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	c.mu.Lock()
	c.calls[id]++
	c.mu.Unlock()
	return c.UserRepository.GetByID(ctx, id)
}

func TestAppointments_ListSharesLookups(t *testing.T) {
	store := memory.New().Store()
	users := &countingUsers{UserRepository: store.Users, calls: map[string]int{}}
	store.Users = users
	e := newEnvWithStore(t, store)
	ctx := context.Background()
	host := e.user(t, "host@example.com", domain.RoleEmployee)
	v := e.visitor(t, "jane@example.com")

	var ids []string
	for i := 0; i < 12; i++ {
		ids = append(ids, e.appointment(t, v.ID, host.ID).ID)
	}
	users.mu.Lock()
	users.calls = map[string]int{}
	users.mu.Unlock()

	list, err := e.svc.Appointments.List(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 12)
	got := map[string]bool{}
	for _, a := range list {
		got[a.ID] = true
		require.NotNil(t, a.Host)
		assert.Equal(t, "host@example.com", a.Host.Email)
		require.NotNil(t, a.Visitor)
	}
	for _, id := range ids {
		assert.True(t, got[id], id)
	}
	assert.Equal(t, 1, users.calls[host.ID])
}

func TestCheckIn_WindowBoundariesAndSingleOpenLog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	host := e.user(t, "host@example.com", domain.RoleEmployee)
	guard := e.user(t, "guard@example.com", domain.RoleSecurity)
	v := e.visitor(t, "jane@example.com")
	a := e.appointment(t, v.ID, host.ID)

	from, until := e.now, e.now.Add(time.Hour)
	p, err := e.svc.Passes.Issue(ctx, &domain.CreatePassRequest{
		Visitor: v.ID, Appointment: &a.ID, ValidFrom: &from, ValidUntil: &until,
	}, guard.ID, qr.FormJSON)
	require.NoError(t, err)

	e.now = until.Add(time.Nanosecond)
	_, err = e.svc.CheckLogs.CheckIn(ctx, &domain.CheckInRequest{PassRef: domain.PassRef{PassID: p.ID}}, guard.ID)
	assert.ErrorIs(t, err, domain.ErrPassInvalid)

	e.now = until
	log, err := e.svc.CheckLogs.CheckIn(ctx, &domain.CheckInRequest{PassRef: domain.PassRef{QRCode: p.QRCode}}, guard.ID)
	require.NoError(t, err)
	assert.True(t, log.IsOpen())
	assert.Equal(t, "Lobby", log.Location)
	require.Len(t, e.notes.arrivals, 1)
	assert.Equal(t, "host@example.com", e.notes.arrivals[0].HostEmail)

	_, err = e.svc.CheckLogs.CheckIn(ctx, &domain.CheckInRequest{PassRef: domain.PassRef{PassNumber: p.PassNumber}}, guard.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn)

	active, err := e.svc.CheckLogs.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	out, err := e.svc.CheckLogs.CheckOut(ctx, &domain.CheckOutRequest{PassRef: domain.PassRef{PassID: p.ID}}, guard.ID)
	require.NoError(t, err)
	require.NotNil(t, out.CheckOutTime)
	assert.False(t, out.CheckOutTime.Before(out.CheckInTime))

	_, err = e.svc.CheckLogs.CheckOut(ctx, &domain.CheckOutRequest{PassRef: domain.PassRef{PassID: p.ID}}, guard.ID)
	assert.ErrorIs(t, err, domain.ErrNotCheckedIn)
}

func TestCheckIn_BadReferences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CheckLogs.CheckIn(ctx, &domain.CheckInRequest{}, "")
	assert.ErrorIs(t, err, domain.ErrMissingRequiredFields)
	_, err = e.svc.CheckLogs.CheckIn(ctx, &domain.CheckInRequest{PassRef: domain.PassRef{QRCode: "VP-UNKNOWN-AAAAAA"}}, "")
	assert.ErrorIs(t, err, domain.ErrPassNotFound)
	_, err = e.svc.CheckLogs.CheckIn(ctx, &domain.CheckInRequest{PassRef: domain.PassRef{QRCode: "{not json"}}, "")
	assert.ErrorIs(t, err, domain.ErrPassNotFound)
	_, err = e.svc.CheckLogs.CheckOut(ctx, &domain.CheckOutRequest{PassRef: domain.PassRef{PassID: "bad"}}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = e.svc.CheckLogs.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrCheckLogNotFound)
}

func TestOTP_SendAndVerify(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.visitor(t, "jane@example.com")
	e.visitor(t, "jane@example.com")

	err := e.svc.Visitors.SendOTP(ctx, &domain.SendOTPRequest{Email: "jane@example.com"})
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	require.NoError(t, e.svc.Visitors.SendOTP(ctx, &domain.SendOTPRequest{Email: "Jane@Example.com", Phone: "555-123-4567"}))
	code := e.notes.code("jane@example.com")
	require.Len(t, code, 6)

	_, err = e.svc.Visitors.VerifyOTP(ctx, &domain.VerifyOTPRequest{Email: "jane@example.com", OTP: "000000x"})
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)

	n, err := e.svc.Visitors.VerifyOTP(ctx, &domain.VerifyOTPRequest{Email: "jane@example.com", OTP: code})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := e.svc.Visitors.List(ctx, domain.VisitorFilter{})
	require.NoError(t, err)
	for _, v := range list {
		assert.True(t, v.IsVerified)
	}

	_, err = e.svc.Visitors.VerifyOTP(ctx, &domain.VerifyOTPRequest{Email: "jane@example.com", OTP: code})
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestRegisterWithOTP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := func() *domain.CreateVisitorRequest {
		return &domain.CreateVisitorRequest{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Phone: "555-987-6543"}
	}

	pending, err := e.svc.Visitors.RegisterWithOTP(ctx, req(), "")
	require.NoError(t, err)
	assert.False(t, pending.IsVerified)
	code := e.notes.code("sam@example.com")
	require.NotEmpty(t, code)

	_, err = e.svc.Visitors.RegisterWithOTP(ctx, req(), "123")
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)

	verified, err := e.svc.Visitors.RegisterWithOTP(ctx, req(), code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}

func TestRegisterWithOTP_RecordCodeIsSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := func() *domain.CreateVisitorRequest {
		return &domain.CreateVisitorRequest{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Phone: "555-222-3333"}
	}

	_, err := e.svc.Visitors.RegisterWithOTP(ctx, req(), "")
	require.NoError(t, err)
	code := e.notes.code("ana@example.com")
	require.NotEmpty(t, code)

	accepted := 0
	for i := 0; i < 3; i++ {
		if _, err := e.svc.Visitors.RegisterWithOTP(ctx, req(), code); err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidOTP)
		}
	}
	assert.Equal(t, 1, accepted)

	_, err = e.svc.Visitors.VerifyOTP(ctx, &domain.VerifyOTPRequest{Email: "ana@example.com", OTP: code})
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestOrganizations_DeleteWithUsers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin@example.com", domain.RoleAdmin)

	org, err := e.svc.Organizations.Create(ctx, &domain.CreateOrganizationRequest{Name: "Acme Corp"}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", org.Slug)

	_, err = e.svc.Organizations.Create(ctx, &domain.CreateOrganizationRequest{Name: "Acme Corp"}, admin.ID)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.svc.Auth.Register(ctx, &domain.CreateUserRequest{
		Email: "member@example.com", Password: "secret123", FirstName: "M", LastName: "M", Organization: &org.ID,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, e.svc.Organizations.Delete(ctx, org.ID), domain.ErrOrganizationHasUsers)

	empty, err := e.svc.Organizations.Create(ctx, &domain.CreateOrganizationRequest{Name: "Empty"}, admin.ID)
	require.NoError(t, err)
	require.NoError(t, e.svc.Organizations.Delete(ctx, empty.ID))
	assert.ErrorIs(t, e.svc.Organizations.Delete(ctx, empty.ID), domain.ErrOrganizationNotFound)
}

func TestAnalytics_DashboardAndTrends(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.now = time.Now().UTC()
	host := e.user(t, "host@example.com", domain.RoleEmployee)
	v := e.visitor(t, "jane@example.com")
	e.appointment(t, v.ID, host.ID)

	stats, err := e.svc.Analytics.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalVisitors)
	assert.EqualValues(t, 1, stats.TotalAppointments)
	assert.Len(t, stats.AppointmentStatusCounts, 5)
	assert.EqualValues(t, 1, stats.AppointmentStatusCounts[domain.StatusPending])
	assert.EqualValues(t, 0, stats.AppointmentStatusCounts[domain.StatusCompleted])

	trends, err := e.svc.Analytics.Trends(ctx)
	require.NoError(t, err)
	require.Len(t, trends.Visitors, 12)
	last := trends.Visitors[11]
	assert.Equal(t, int(e.now.Month()), last.Month)
	assert.EqualValues(t, 1, last.Count)

	hosts, err := e.svc.Analytics.TopHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, host.ID, hosts[0].HostID)
}
