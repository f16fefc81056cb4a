package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"golang.org/x/sync/errgroup"
)

const populateConcurrency = 8

// populator resolves entity references for responses. A dangling reference
// resolves to nil; any other storage error is returned.
type populator struct {
	store repo.Store
	// set for list calls, where the same host or visitor shows up many times
	users    *memo[*domain.UserSummary]
	visitors *memo[*domain.VisitorSummary]
}

// memo runs one fetch per id and shares the result with every caller.
type memo[V any] struct {
	mu      sync.Mutex
	entries map[string]*memoEntry[V]
}

type memoEntry[V any] struct {
	once sync.Once
	v    V
	err  error
}

func newMemo[V any]() *memo[V] {
	return &memo[V]{entries: make(map[string]*memoEntry[V])}
}

func (m *memo[V]) get(id string, fetch func() (V, error)) (V, error) {
	if m == nil {
		return fetch()
	}
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		e = &memoEntry[V]{}
		m.entries[id] = e
	}
	m.mu.Unlock()
	e.once.Do(func() { e.v, e.err = fetch() })
	return e.v, e.err
}

// batch returns a populator that shares user and visitor lookups across views.
func (p populator) batch() populator {
	return populator{store: p.store, users: newMemo[*domain.UserSummary](), visitors: newMemo[*domain.VisitorSummary]()}
}

func (p populator) user(ctx context.Context, id *string) (*domain.UserSummary, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	return p.users.get(*id, func() (*domain.UserSummary, error) {
		u, err := p.store.Users.GetByID(ctx, *id)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return u.Summary(), nil
	})
}

func (p populator) visitor(ctx context.Context, id string) (*domain.VisitorSummary, error) {
	return p.visitors.get(id, func() (*domain.VisitorSummary, error) {
		v, err := p.store.Visitors.GetByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return v.Summary(), nil
	})
}

// populateAll builds one view per item with bounded concurrency, keeping item order.
func populateAll[T, V any](ctx context.Context, items []T, view func(context.Context, *T) (*V, error)) ([]V, error) {
	out := make([]V, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(populateConcurrency)
	for i := range items {
		g.Go(func() error {
			v, err := view(ctx, &items[i])
			if err != nil {
				return err
			}
			out[i] = *v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p populator) visitorView(ctx context.Context, v *domain.Visitor) (*domain.VisitorView, error) {
	by, err := p.user(ctx, v.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &domain.VisitorView{Visitor: v, CreatedByUser: by}, nil
}

func (p populator) appointmentView(ctx context.Context, a *domain.Appointment) (*domain.AppointmentView, error) {
	view := &domain.AppointmentView{Appointment: a}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Visitor, err = p.visitor(ctx, a.VisitorID)
		return err
	})
	g.Go(func() (err error) {
		view.Host, err = p.user(ctx, &a.HostID)
		return err
	})
	g.Go(func() (err error) {
		view.ApprovedByUser, err = p.user(ctx, a.ApprovedBy)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (p populator) passView(ctx context.Context, pass *domain.Pass, now time.Time) (*domain.PassView, error) {
	view := &domain.PassView{Pass: pass, Valid: pass.IsValid(now)}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Visitor, err = p.visitor(ctx, pass.VisitorID)
		return err
	})
	if pass.AppointmentID != nil {
		g.Go(func() error {
			a, err := p.store.Appointments.GetByID(ctx, *pass.AppointmentID)
			switch {
			case err == nil:
				view.Appointment = a
			case !errors.Is(err, repo.ErrNotFound):
				return err
			}
			return nil
		})
	}
	g.Go(func() (err error) {
		view.IssuedByUser, err = p.user(ctx, pass.IssuedBy)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (p populator) checkLogView(ctx context.Context, l *domain.CheckLog) (*domain.CheckLogView, error) {
	view := &domain.CheckLogView{CheckLog: l}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Visitor, err = p.visitor(ctx, l.VisitorID)
		return err
	})
	g.Go(func() error {
		pass, err := p.store.Passes.GetByID(ctx, l.PassID)
		switch {
		case err == nil:
			view.Pass = pass.Summary()
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}
		return nil
	})
	g.Go(func() (err error) {
		view.CheckInByUser, err = p.user(ctx, l.CheckInBy)
		return err
	})
	g.Go(func() (err error) {
		view.CheckOutByUser, err = p.user(ctx, l.CheckOutBy)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
