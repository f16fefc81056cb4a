// Package memory is a process-local implementation of the repo contracts.
// It backs tests and STORAGE_DRIVER=memory.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/google/uuid"
)

type DB struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	visitors     map[string]domain.Visitor
	appointments map[string]domain.Appointment
	passes       map[string]domain.Pass
	checkLogs    map[string]domain.CheckLog
	orgs         map[string]domain.Organization
	rate         map[string]rateWindow
	now          func() time.Time
}

func New() *DB {
	return &DB{
		users:        make(map[string]domain.User),
		visitors:     make(map[string]domain.Visitor),
		appointments: make(map[string]domain.Appointment),
		passes:       make(map[string]domain.Pass),
		checkLogs:    make(map[string]domain.CheckLog),
		orgs:         make(map[string]domain.Organization),
		rate:         make(map[string]rateWindow),
		now:          time.Now,
	}
}

// Store exposes every repository backed by db.
func (db *DB) Store() repo.Store {
	return repo.Store{
		Users:         &UserRepo{db: db},
		Visitors:      &VisitorRepo{db: db},
		Appointments:  &AppointmentRepo{db: db},
		Passes:        &PassRepo{db: db},
		CheckLogs:     &CheckLogRepo{db: db},
		Organizations: &OrganizationRepo{db: db},
		Analytics:     &AnalyticsRepo{db: db},
		RateLimits:    &RateCounter{db: db},
	}
}

func (db *DB) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := db.now().UTC()
	*created = now
	*updated = now
}

// sortByTime orders items newest first, breaking ties by id for stable output.
func sortByTime[T any](items []T, at func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ti, tj := at(items[i]), at(items[j])
		if ti.Equal(tj) {
			return id(items[i]) > id(items[j])
		}
		return ti.After(tj)
	})
}
