package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"jobtrack-backend/internal/application/domain"
)

type fakeApps struct {
	mu        sync.Mutex
	apps      []domain.JobApplication
	nextID    int
	createErr error
	updates   []domain.ApplicationUpdate
}

func (f *fakeApps) Create(_ context.Context, app *domain.JobApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	if app.ID == "" {
		app.ID = fmt.Sprintf("app-%d", f.nextID)
	}
	f.apps = append(f.apps, *app)
	return nil
}

func (f *fakeApps) FindByID(_ context.Context, userID, id string) (*domain.JobApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apps {
		if f.apps[i].ID == id && f.apps[i].UserID == userID {
			app := f.apps[i]
			return &app, nil
		}
	}
	return nil, nil
}

func (f *fakeApps) find(userID string, pred func(domain.JobApplication) bool) *domain.JobApplication {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.UserID == userID && pred(a) {
			app := a
			return &app
		}
	}
	return nil
}

func (f *fakeApps) FindExact(_ context.Context, userID, company, role string, location *string) (*domain.JobApplication, error) {
	return f.find(userID, func(a domain.JobApplication) bool {
		if location != nil && (a.Location == nil || *a.Location != *location) {
			return false
		}
		return a.Company == company && a.Role == role
	}), nil
}

func (f *fakeApps) FindCaseInsensitive(_ context.Context, userID, company, role string, location *string) (*domain.JobApplication, error) {
	return f.find(userID, func(a domain.JobApplication) bool {
		if location != nil && (a.Location == nil || !strings.EqualFold(*a.Location, *location)) {
			return false
		}
		return strings.EqualFold(a.Company, company) && strings.EqualFold(a.Role, role)
	}), nil
}

func (f *fakeApps) FindByCompanyOverlap(_ context.Context, userID, company string) ([]domain.JobApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := strings.ToLower(company)
	var out []domain.JobApplication
	for _, a := range f.apps {
		c := strings.ToLower(a.Company)
		if a.UserID == userID && (strings.Contains(c, target) || strings.Contains(target, c)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApps) ApplyUpdate(_ context.Context, id string, u domain.ApplicationUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	for i := range f.apps {
		if f.apps[i].ID != id {
			continue
		}
		a := &f.apps[i]
		a.LastUpdatedAt = u.LastUpdatedAt
		a.LastEmailReceivedAt = u.LastEmailReceivedAt
		if u.Status != nil {
			a.Status = *u.Status
		}
		if u.Location != nil {
			a.Location = u.Location
		}
		if u.SalaryRange != nil {
			a.SalaryRange = u.SalaryRange
		}
		if u.Notes != nil {
			a.Notes = u.Notes
		}
		return nil
	}
	return errors.New("not found")
}

func (f *fakeApps) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.JobApplication, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.JobApplication
	for _, a := range f.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeApps) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.apps)
}

type fakeEvents struct {
	mu        sync.Mutex
	events    []domain.ApplicationEvent
	createErr error
}

func (f *fakeEvents) Create(_ context.Context, e *domain.ApplicationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("evt-%d", len(f.events)+1)
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEvents) ListByApplication(_ context.Context, userID, applicationID string) ([]domain.ApplicationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ApplicationEvent
	for _, e := range f.events {
		if e.UserID == userID && e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRefs struct {
	mu    sync.Mutex
	links map[string]string
}

func (f *fakeRefs) FindByMessageID(context.Context, string, string) (*domain.EmailReference, error) {
	return nil, nil
}

func (f *fakeRefs) Ensure(_ context.Context, ref *domain.EmailReference) (*domain.EmailReference, bool, error) {
	return ref, true, nil
}

func (f *fakeRefs) UpdateExtraction(context.Context, string, domain.Intent, float64, time.Time) error {
	return nil
}

func (f *fakeRefs) LinkApplication(_ context.Context, emailID, applicationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.links == nil {
		f.links = map[string]string{}
	}
	f.links[emailID] = applicationID
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []ApplicationChange
}

func (n *recordingNotifier) NotifyApplicationChange(_ context.Context, c ApplicationChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

func strPtr(s string) *string { return &s }
