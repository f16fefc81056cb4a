// Command seed loads demo staff, visitors and appointments into the configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/platform/badge"
	"github.com/diagnosis/visitor-pass/internal/platform/mailer"
	"github.com/diagnosis/visitor-pass/internal/platform/otp"
	"github.com/diagnosis/visitor-pass/internal/platform/qr"
	"github.com/diagnosis/visitor-pass/internal/repo/memory"
	"github.com/diagnosis/visitor-pass/internal/repo/postgres"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/diagnosis/visitor-pass/pkg/database"
	"github.com/diagnosis/visitor-pass/pkg/logger"
	"github.com/joho/godotenv"
)

const seedPassword = "password123"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not read .env file", "error", err)
	}
	if err := run(context.Background()); err != nil {
		logger.Error("Seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	cfg.Email.Async = false

	d := service.Deps{
		Config:   cfg,
		Store:    memory.New().Store(),
		Notifier: notify.NewDispatcher(mailer.New(cfg.Email), cfg.Server.FrontendURL, false),
		OTP:      otp.NewVerifier(otp.NewMemoryStore(), cfg.OTP.TTL),
		Badges:   badge.NewRenderer(cfg.Upload.Dir),
	}
	if cfg.Database.Driver != "memory" {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		d.Store = postgres.New(pool)
	} else {
		logger.Warn("STORAGE_DRIVER=memory: seeded data is discarded when this process exits")
	}
	svc := service.New(d)

	if _, err := d.Store.Users.GetByEmail(ctx, "admin@example.com"); err == nil {
		logger.Info("Seed data already present, nothing to do")
		return nil
	}

	admin, err := seedUser(ctx, svc, "admin@example.com", "Admin", "User", domain.RoleAdmin, "")
	if err != nil {
		return err
	}
	if _, err := seedUser(ctx, svc, "security@example.com", "Security", "Guard", domain.RoleSecurity, "Security"); err != nil {
		return err
	}
	host, err := seedUser(ctx, svc, "employee@example.com", "John", "Doe", domain.RoleEmployee, "Engineering")
	if err != nil {
		return err
	}

	jane, err := svc.Visitors.Create(ctx, &domain.CreateVisitorRequest{
		FirstName: "Jane", LastName: "Smith", Email: "jane.smith@example.com", Phone: "555-123-4567",
		Company: "Tech Corp", IDType: domain.IDPassport, IDNumber: "P1234567", Purpose: "Business meeting",
	}, admin.ID)
	if err != nil {
		return fmt.Errorf("seed visitor jane: %w", err)
	}
	bob, err := svc.Visitors.Create(ctx, &domain.CreateVisitorRequest{
		FirstName: "Bob", LastName: "Johnson", Email: "bob.johnson@example.com", Phone: "555-987-6543",
		Purpose: "Interview",
	}, admin.ID)
	if err != nil {
		return fmt.Errorf("seed visitor bob: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	if _, err := svc.Appointments.Create(ctx, &domain.CreateAppointmentRequest{
		Visitor: jane.ID, Host: host.ID, ScheduledDate: today, ScheduledTime: "10:00 AM",
		Purpose: "Project kickoff", Location: "Conference Room A",
	}); err != nil {
		return fmt.Errorf("seed pending appointment: %w", err)
	}
	approved, err := svc.Appointments.Create(ctx, &domain.CreateAppointmentRequest{
		Visitor: bob.ID, Host: host.ID, ScheduledDate: today, ScheduledTime: "2:00 PM",
		Purpose: "Interview", Location: "Main Office",
	})
	if err != nil {
		return fmt.Errorf("seed approved appointment: %w", err)
	}
	if _, err := svc.Appointments.Approve(ctx, approved.ID, &domain.StatusChangeRequest{}, host.ID); err != nil {
		return fmt.Errorf("approve appointment: %w", err)
	}
	pass, err := svc.Passes.Issue(ctx, &domain.CreatePassRequest{Visitor: bob.ID, Appointment: &approved.ID}, admin.ID, qr.FormNumber)
	if err != nil {
		return fmt.Errorf("issue pass: %w", err)
	}

	logger.Info("Seed complete",
		"password", seedPassword,
		"users", []string{"admin@example.com", "security@example.com", "employee@example.com"},
		"pass_number", pass.PassNumber,
	)
	return nil
}

func seedUser(ctx context.Context, svc *service.Services, email, first, last string, role domain.Role, dept string) (*domain.User, error) {
	u, err := svc.Auth.Register(ctx, &domain.CreateUserRequest{
		Email: email, Password: seedPassword, FirstName: first, LastName: last, Role: role, Department: dept,
	})
	if err != nil {
		return nil, fmt.Errorf("seed user %s: %w", email, err)
	}
	return u, nil
}
