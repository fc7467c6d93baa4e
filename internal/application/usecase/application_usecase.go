package usecase

import (
	"context"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/repository"
)

type applicationUsecase struct {
	apps   repository.JobApplicationRepository
	events repository.ApplicationEventRepository
}

func NewApplicationUsecase(apps repository.JobApplicationRepository, events repository.ApplicationEventRepository) ApplicationUsecase {
	return &applicationUsecase{apps: apps, events: events}
}

func (u *applicationUsecase) ListApplications(ctx context.Context, userID string, limit, offset int) ([]domain.JobApplication, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return u.apps.ListByUser(ctx, userID, limit, offset)
}

func (u *applicationUsecase) GetApplication(ctx context.Context, userID, applicationID string) (*domain.JobApplication, error) {
	return u.apps.FindByID(ctx, userID, applicationID)
}

func (u *applicationUsecase) ListEvents(ctx context.Context, userID, applicationID string) ([]domain.ApplicationEvent, error) {
	return u.events.ListByApplication(ctx, userID, applicationID)
}
