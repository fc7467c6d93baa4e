package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobtrack-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// emailReferenceRepository implements EmailReferenceRepository interface
type emailReferenceRepository struct {
	db *gorm.DB
}

// NewEmailReferenceRepository creates a new instance of emailReferenceRepository
func NewEmailReferenceRepository(db *gorm.DB) EmailReferenceRepository {
	return &emailReferenceRepository{
		db: db,
	}
}

func (r *emailReferenceRepository) FindByMessageID(ctx context.Context, userID, externalMessageID string) (*domain.EmailReference, error) {
	var ref domain.EmailReference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND external_message_id = ?", userID, externalMessageID).
		First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

// Ensure inserts with ON CONFLICT DO NOTHING on (user_id, external_message_id),
// so a redelivered message cannot produce a second row even under concurrency.
func (r *emailReferenceRepository) Ensure(ctx context.Context, ref *domain.EmailReference) (*domain.EmailReference, bool, error) {
	if ref.ID == "" {
		ref.ID = uuid.New().String()
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "external_message_id"}},
		DoNothing: true,
	}).Create(ref)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return ref, true, nil
	}

	existing, err := r.FindByMessageID(ctx, ref.UserID, ref.ExternalMessageID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("email ref for message %s vanished after conflict", ref.ExternalMessageID)
	}
	return existing, false, nil
}

func (r *emailReferenceRepository) LinkApplication(ctx context.Context, emailID, applicationID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.EmailReference{}).
		Where("email_id = ?", emailID).
		Update("application_id", applicationID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *emailReferenceRepository) UpdateExtraction(ctx context.Context, emailID string, intent domain.Intent, confidence float64, parsedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.EmailReference{}).
		Where("email_id = ?", emailID).
		Updates(map[string]interface{}{
			"intent":           intent,
			"confidence_score": confidence,
			"parsed_at":        parsedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
