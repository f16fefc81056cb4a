package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/handlers"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/platform/badge"
	"github.com/diagnosis/visitor-pass/internal/platform/otp"
	"github.com/diagnosis/visitor-pass/internal/repo/memory"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type codeCatcher struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeCatcher) AppointmentCreated(context.Context, notify.AppointmentNotice)           {}
func (c *codeCatcher) AppointmentApproved(context.Context, notify.AppointmentNotice, string) {}
func (c *codeCatcher) AppointmentRejected(context.Context, notify.AppointmentNotice)          {}
func (c *codeCatcher) AppointmentCancelled(context.Context, notify.AppointmentNotice)         {}
func (c *codeCatcher) VisitorArrival(context.Context, notify.ArrivalNotice)                   {}

func (c *codeCatcher) OTPCode(_ context.Context, email, code string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
}

func (c *codeCatcher) code(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type APISuite struct {
	suite.Suite
	router    http.Handler
	svc       *service.Services
	codes     *codeCatcher
	uploadDir string

	adminToken, securityToken, employeeToken string
	employeeID                               string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.uploadDir = s.T().TempDir()
	cfg := &config.Config{
		Server:    config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Auth:      config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour},
		OTP:       config.OTPConfig{TTL: 10 * time.Minute},
		Pass:      config.PassConfig{DefaultValidity: 24 * time.Hour, NumberAttempts: 3},
		Upload:    config.UploadConfig{Dir: s.uploadDir, MaxSize: 1 << 20},
		RateLimit: config.RateLimitConfig{OTPRequests: 3, OTPWindow: time.Minute},
	}
	store := memory.New().Store()
	s.codes = &codeCatcher{codes: map[string]string{}}
	s.svc = service.New(service.Deps{
		Config:   cfg,
		Store:    store,
		Notifier: s.codes,
		OTP:      otp.NewVerifier(otp.NewMemoryStore(), cfg.OTP.TTL),
		Badges:   badge.NewRenderer(s.uploadDir),
	})
	s.router = handlers.NewRouter(handlers.RouterDeps{Config: cfg, Services: s.svc, RateLimits: store.RateLimits})

	s.adminToken = s.staff("admin@example.com", domain.RoleAdmin).token
	s.securityToken = s.staff("security@example.com", domain.RoleSecurity).token
	emp := s.staff("employee@example.com", domain.RoleEmployee)
	s.employeeToken, s.employeeID = emp.token, emp.id
}

type staffLogin struct{ id, token string }

func (s *APISuite) staff(email string, role domain.Role) staffLogin {
	u, err := s.svc.Auth.Register(context.Background(), &domain.CreateUserRequest{
		Email: email, Password: "password123", FirstName: "Staff", LastName: string(role), Role: role,
	})
	s.Require().NoError(err)

	rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "password123"})
	s.Require().Equal(http.StatusOK, rec.Code)
	var out struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	return staffLogin{id: u.ID, token: out.Token}
}

func (s *APISuite) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *APISuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, token)
}

func (s *APISuite) data(env envelope, v any) {
	s.Require().NoError(json.Unmarshal(env.Data, v))
}

func (s *APISuite) errCode(env envelope) string {
	s.Require().NotNil(env.Error)
	s.False(env.Success)
	return env.Error.Code
}

func (s *APISuite) TestVisitFlow() {
	rec, env := s.do(http.MethodPost, "/api/visitors", s.securityToken, map[string]string{
		"firstName": "Jane", "lastName": "Smith", "email": "jane@example.com", "phone": "+15551234567",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var visitor struct{ ID string }
	s.data(env, &visitor)

	rec, env = s.do(http.MethodPost, "/api/appointments", s.securityToken, map[string]string{
		"visitor": visitor.ID, "host": s.employeeID, "scheduledDate": "2026-03-10",
		"scheduledTime": "10:00", "purpose": "Interview",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var appt struct {
		ID     string
		Status string
	}
	s.data(env, &appt)
	s.Equal("pending", appt.Status)

	rec, env = s.do(http.MethodPut, "/api/appointments/"+appt.ID+"/approve", s.employeeToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var approved struct {
		Status       string
		ApprovedByID string `json:"approvedById"`
	}
	s.data(env, &approved)
	s.Equal("approved", approved.Status)
	s.Equal(s.employeeID, approved.ApprovedByID)

	rec, env = s.do(http.MethodPost, "/api/passes", s.securityToken, map[string]string{
		"visitor": visitor.ID, "appointment": appt.ID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var pass struct {
		ID          string
		PassNumber  string
		QRCodeImage string `json:"qrCodeImage"`
		IsValid     bool   `json:"isValid"`
	}
	s.data(env, &pass)
	s.NotEmpty(pass.PassNumber)
	s.NotEmpty(pass.QRCodeImage)
	s.True(pass.IsValid)

	rec, env = s.do(http.MethodGet, "/api/passes/verify/"+pass.PassNumber, s.securityToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/checklogs/checkin", s.securityToken, map[string]string{"passId": pass.ID})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var log struct {
		ID           string
		CheckOutTime *time.Time
	}
	s.data(env, &log)
	s.Nil(log.CheckOutTime)

	rec, env = s.do(http.MethodPost, "/api/checklogs/checkin", s.securityToken, map[string]string{"passId": pass.ID})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("ALREADY_CHECKED_IN", s.errCode(env))

	rec, env = s.do(http.MethodGet, "/api/checklogs/active", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NotNil(env.Count)
	s.Equal(1, *env.Count)

	rec, env = s.do(http.MethodPost, "/api/checklogs/checkout", s.securityToken, map[string]string{"passId": pass.ID, "notes": "left"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.data(env, &log)
	s.NotNil(log.CheckOutTime)

	rec, env = s.do(http.MethodGet, "/api/checklogs/active", s.adminToken, nil)
	s.Equal(0, *env.Count)
	s.Equal("[]", string(env.Data))

	rec, _ = s.do(http.MethodGet, "/api/passes/"+pass.ID+"/badge", s.securityToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/pdf", rec.Header().Get("Content-Type"))
	s.Equal("attachment; filename=pass-"+pass.PassNumber+".pdf", rec.Header().Get("Content-Disposition"))
	s.True(bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func (s *APISuite) TestLoginWrongPasswordFiveTimes() {
	var bodies []string
	for i := 0; i < 5; i++ {
		rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "admin@example.com", "password": "wrong-password",
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("INVALID_CREDENTIALS", s.errCode(env))
		bodies = append(bodies, rec.Body.String())
	}
	rec, _ := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
	for _, b := range bodies {
		s.Equal(rec.Body.String(), b)
	}

	rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("MISSING_CREDENTIALS", s.errCode(env))
}

func (s *APISuite) TestAuthorization() {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{"missing token", http.MethodGet, "/api/visitors", "", http.StatusUnauthorized, "NO_TOKEN"},
		{"garbage token", http.MethodGet, "/api/visitors", "nope", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"employee issuing pass", http.MethodPost, "/api/passes", s.employeeToken, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"security listing users", http.MethodGet, "/api/users", s.securityToken, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"employee reading analytics", http.MethodGet, "/api/analytics/dashboard", s.employeeToken, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"security registering staff", http.MethodPost, "/api/auth/register", s.securityToken, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"unknown route", http.MethodGet, "/api/nothing-here", s.adminToken, http.StatusNotFound, "NOT_FOUND"},
		{"bad id", http.MethodGet, "/api/visitors/123", s.adminToken, http.StatusBadRequest, "INVALID_ID"},
		{"missing pass", http.MethodGet, "/api/passes/00000000-0000-0000-0000-000000000000", s.adminToken, http.StatusNotFound, "PASS_NOT_FOUND"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec, env := s.do(tt.method, tt.path, tt.token, nil)
			s.Equal(tt.status, rec.Code, rec.Body.String())
			s.Equal(tt.code, s.errCode(env))
		})
	}

	rec, env := s.do(http.MethodGet, "/api/analytics/dashboard", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats domain.DashboardStats
	s.data(env, &stats)
	s.Len(stats.AppointmentStatusCounts, 5)
}

func (s *APISuite) TestInvalidJSON() {
	req := httptest.NewRequest(http.MethodPost, "/api/visitors", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec, env := s.send(req, s.adminToken)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", s.errCode(env))
}

func (s *APISuite) TestSendOTPRateLimited() {
	body := map[string]string{"email": "sam@example.com", "phone": "555-987-6543"}
	for i := 0; i < 3; i++ {
		rec, _ := s.do(http.MethodPost, "/api/visitors/send-otp", "", body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}
	rec, env := s.do(http.MethodPost, "/api/visitors/send-otp", "", body)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("RATE_LIMIT_EXCEEDED", s.errCode(env))
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func (s *APISuite) multipartRegister(fields map[string]string, filename string, file []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("photo", filename)
		s.Require().NoError(err)
		_, err = part.Write(file)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/visitors/register-with-otp", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *APISuite) TestRegisterWithOTPUpload() {
	rec, _ := s.do(http.MethodPost, "/api/visitors/send-otp", "", map[string]string{"email": "sam@example.com", "phone": "555-987-6543"})
	s.Require().Equal(http.StatusOK, rec.Code)
	code := s.codes.code("sam@example.com")
	s.Require().NotEmpty(code)

	fields := map[string]string{
		"firstName": "Sam", "lastName": "Lee", "email": "sam@example.com", "phone": "555-987-6543", "otp": code,
	}

	rec, env := s.send(s.multipartRegister(fields, "notes.txt", []byte("plain text, not an image")), "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("INVALID_FILE_TYPE", s.errCode(env))

	rec, env = s.send(s.multipartRegister(fields, "me.png", pngBytes(s.T())), "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var v struct {
		Photo      string
		IsVerified bool `json:"isVerified"`
	}
	s.data(env, &v)
	s.True(v.IsVerified)
	s.True(strings.HasPrefix(v.Photo, "/uploads/"))
	s.True(strings.HasSuffix(v.Photo, ".png"))

	_, err := os.Stat(filepath.Join(s.uploadDir, filepath.Base(v.Photo)))
	s.NoError(err)

	req := httptest.NewRequest(http.MethodGet, v.Photo, nil)
	served := httptest.NewRecorder()
	s.router.ServeHTTP(served, req)
	s.Equal(http.StatusOK, served.Code)
	assert.Equal(s.T(), "image/png", served.Header().Get("Content-Type"))
}

func (s *APISuite) TestRegisterWithOTPFileTooLarge() {
	fields := map[string]string{"firstName": "Sam", "lastName": "Lee", "email": "sam@example.com", "phone": "555-987-6543"}
	for _, size := range []int{1<<20 + 1000, 3 << 20} {
		file := append(pngBytes(s.T()), bytes.Repeat([]byte{0}, size)...)
		rec, env := s.send(s.multipartRegister(fields, "big.png", file), "")
		s.Equal(http.StatusRequestEntityTooLarge, rec.Code, "size %d", size)
		s.Equal("FILE_TOO_LARGE", s.errCode(env))
	}
	entries, err := os.ReadDir(s.uploadDir)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *APISuite) TestRegisterWithOTPRateLimited() {
	body := map[string]string{
		"firstName": "Sam", "lastName": "Lee", "email": "sam@example.com", "phone": "555-987-6543", "otp": "000000",
	}
	for i := 0; i < 3; i++ {
		rec, env := s.do(http.MethodPost, "/api/visitors/register-with-otp", "", body)
		s.Require().Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
		s.Equal("INVALID_OTP", s.errCode(env))
	}
	rec, env := s.do(http.MethodPost, "/api/visitors/register-with-otp", "", body)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("RATE_LIMIT_EXCEEDED", s.errCode(env))

	// forwarding headers from an untrusted peer do not open a fresh bucket
	req := httptest.NewRequest(http.MethodPost, "/api/visitors/register-with-otp", strings.NewReader(`{"email":"sam@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	rec, env = s.send(req, "")
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("RATE_LIMIT_EXCEEDED", s.errCode(env))
}

func (s *APISuite) TestAppointmentStatusUpdateCannotApprove() {
	rec, env := s.do(http.MethodPost, "/api/visitors", s.securityToken, map[string]string{
		"firstName": "Jane", "lastName": "Smith", "email": "jane@example.com", "phone": "+15551234567",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var v struct{ ID string }
	s.data(env, &v)

	rec, env = s.do(http.MethodPost, "/api/appointments", s.employeeToken, map[string]string{
		"visitor": v.ID, "host": s.employeeID, "scheduledDate": "2030-01-15", "scheduledTime": "10:00", "purpose": "Interview",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var a struct {
		ID     string
		Status string
	}
	s.data(env, &a)

	rec, env = s.do(http.MethodPut, "/api/appointments/"+a.ID, s.employeeToken, map[string]string{"status": "approved"})
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("INVALID_STATUS_TRANSITION", s.errCode(env))

	rec, _ = s.do(http.MethodPut, "/api/appointments/"+a.ID+"/reject", s.employeeToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodPut, "/api/appointments/"+a.ID, s.employeeToken, map[string]string{"status": "cancelled"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.data(env, &a)
	s.Equal("cancelled", a.Status)
}
