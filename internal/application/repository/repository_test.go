package repository

import (
	"context"
	"testing"
	"time"

	"jobtrack-backend/internal/application/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.JobApplication{}, &domain.ApplicationEvent{}, &domain.EmailReference{}))
	return db
}

func seed(t *testing.T, repo JobApplicationRepository, userID, company, role string, created time.Time) *domain.JobApplication {
	t.Helper()
	app := &domain.JobApplication{
		UserID:    userID,
		Company:   company,
		Role:      role,
		Status:    domain.StatusApplied,
		CreatedAt: created,
	}
	require.NoError(t, repo.Create(context.Background(), app))
	require.NotEmpty(t, app.ID)
	return app
}

func TestJobApplicationLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewJobApplicationRepository(newTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	acme := seed(t, repo, "u1", "Acme Corp", "Senior Backend Engineer", base)
	seed(t, repo, "u1", "Acme Corp Labs", "Data Engineer", base.Add(time.Hour))
	seed(t, repo, "u1", "Globex", "Designer", base.Add(2*time.Hour))
	seed(t, repo, "u2", "Acme Corp", "Senior Backend Engineer", base)

	got, err := repo.FindExact(ctx, "u1", "Acme Corp", "Senior Backend Engineer", nil)
	require.NoError(t, err)
	require.Equal(t, acme.ID, got.ID)

	got, err = repo.FindExact(ctx, "u1", "acme corp", "Senior Backend Engineer", nil)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = repo.FindCaseInsensitive(ctx, "u1", "acme corp", "senior backend ENGINEER", nil)
	require.NoError(t, err)
	require.Equal(t, acme.ID, got.ID)

	loc := "Berlin"
	got, err = repo.FindCaseInsensitive(ctx, "u1", "acme corp", "senior backend engineer", &loc)
	require.NoError(t, err)
	require.Nil(t, got)

	// "acme" is contained in both Acme rows; "acme corp labs inc" contains both too
	overlap, err := repo.FindByCompanyOverlap(ctx, "u1", "acme")
	require.NoError(t, err)
	require.Len(t, overlap, 2)
	require.Equal(t, acme.ID, overlap[0].ID)

	overlap, err = repo.FindByCompanyOverlap(ctx, "u1", "Acme Corp Labs Inc")
	require.NoError(t, err)
	require.Len(t, overlap, 2)

	overlap, err = repo.FindByCompanyOverlap(ctx, "u1", "100%")
	require.NoError(t, err)
	require.Empty(t, overlap)
}

func TestCompanyOverlapTreatsStoredWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	repo := NewJobApplicationRepository(newTestDB(t))
	wild := seed(t, repo, "u1", "A%e", "Engineer", time.Now())
	under := seed(t, repo, "u1", "Gl_bex", "Engineer", time.Now())

	overlap, err := repo.FindByCompanyOverlap(ctx, "u1", "Acme Corp")
	require.NoError(t, err)
	require.Empty(t, overlap)

	overlap, err = repo.FindByCompanyOverlap(ctx, "u1", "Globex Labs")
	require.NoError(t, err)
	require.Empty(t, overlap)

	overlap, err = repo.FindByCompanyOverlap(ctx, "u1", "The A%e Group")
	require.NoError(t, err)
	require.Len(t, overlap, 1)
	require.Equal(t, wild.ID, overlap[0].ID)

	overlap, err = repo.FindByCompanyOverlap(ctx, "u1", "gl_bex")
	require.NoError(t, err)
	require.Len(t, overlap, 1)
	require.Equal(t, under.ID, overlap[0].ID)
}

func TestJobApplicationApplyUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewJobApplicationRepository(newTestDB(t))
	app := seed(t, repo, "u1", "Acme", "Engineer", time.Now())

	loc := "Remote"
	require.NoError(t, repo.ApplyUpdate(ctx, app.ID, domain.ApplicationUpdate{Location: &loc, LastUpdatedAt: time.Now(), LastEmailReceivedAt: time.Now()}))

	status := domain.StatusOffered
	require.NoError(t, repo.ApplyUpdate(ctx, app.ID, domain.ApplicationUpdate{Status: &status, LastUpdatedAt: time.Now(), LastEmailReceivedAt: time.Now()}))

	stored, err := repo.FindByID(ctx, "u1", app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOffered, stored.Status)
	require.Equal(t, "Remote", *stored.Location)

	err = repo.ApplyUpdate(ctx, "missing", domain.ApplicationUpdate{LastUpdatedAt: time.Now()})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	apps, total, err := repo.ListByUser(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, apps, 1)
}

func TestEmailReferenceEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailReferenceRepository(newTestDB(t))

	first, created, err := repo.Ensure(ctx, &domain.EmailReference{UserID: "u1", ExternalMessageID: "m1", Subject: "hello", ReceivedAt: time.Now()})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := repo.Ensure(ctx, &domain.EmailReference{UserID: "u1", ExternalMessageID: "m1", Subject: "again", ReceivedAt: time.Now()})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "hello", second.Subject)

	_, created, err = repo.Ensure(ctx, &domain.EmailReference{UserID: "u2", ExternalMessageID: "m1", ReceivedAt: time.Now()})
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, repo.LinkApplication(ctx, first.ID, "app-1"))
	stored, err := repo.FindByMessageID(ctx, "u1", "m1")
	require.NoError(t, err)
	require.Equal(t, "app-1", *stored.ApplicationID)

	missing, err := repo.FindByMessageID(ctx, "u1", "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestApplicationEventsOrdered(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationEventRepository(newTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &domain.ApplicationEvent{ApplicationID: "a", UserID: "u1", EventType: domain.EventOfferReceived, EventDate: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &domain.ApplicationEvent{ApplicationID: "a", UserID: "u1", EventType: domain.EventInterviewScheduled, EventDate: base}))
	require.NoError(t, repo.Create(ctx, &domain.ApplicationEvent{ApplicationID: "b", UserID: "u1", EventType: domain.EventApplicationRejected, EventDate: base}))

	events, err := repo.ListByApplication(ctx, "u1", "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.EventInterviewScheduled, events[0].EventType)
	require.Equal(t, domain.EventOfferReceived, events[1].EventType)
}
