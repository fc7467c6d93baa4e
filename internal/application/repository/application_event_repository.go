package repository

import (
	"context"
	"time"

	"jobtrack-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type applicationEventRepository struct {
	db *gorm.DB
}

func NewApplicationEventRepository(db *gorm.DB) ApplicationEventRepository {
	return &applicationEventRepository{db: db}
}

func (r *applicationEventRepository) Create(ctx context.Context, event *domain.ApplicationEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *applicationEventRepository) ListByApplication(ctx context.Context, userID, applicationID string) ([]domain.ApplicationEvent, error) {
	var events []domain.ApplicationEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND application_id = ?", userID, applicationID).
		Order("event_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
