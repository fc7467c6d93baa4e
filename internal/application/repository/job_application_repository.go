package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobtrack-backend/internal/application/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// jobApplicationRepository implements JobApplicationRepository interface
type jobApplicationRepository struct {
	db *gorm.DB
}

// NewJobApplicationRepository creates a new instance of jobApplicationRepository
func NewJobApplicationRepository(db *gorm.DB) JobApplicationRepository {
	return &jobApplicationRepository{
		db: db,
	}
}

func (r *jobApplicationRepository) Create(ctx context.Context, app *domain.JobApplication) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	if app.LastUpdatedAt.IsZero() {
		app.LastUpdatedAt = now
	}
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *jobApplicationRepository) FindByID(ctx context.Context, userID, applicationID string) (*domain.JobApplication, error) {
	var app domain.JobApplication
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND application_id = ?", userID, applicationID).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *jobApplicationRepository) FindExact(ctx context.Context, userID, company, role string, location *string) (*domain.JobApplication, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND company = ? AND role = ?", userID, company, role)
	if location != nil {
		q = q.Where("location = ?", *location)
	}
	return first(q)
}

func (r *jobApplicationRepository) FindCaseInsensitive(ctx context.Context, userID, company, role string, location *string) (*domain.JobApplication, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(company) = ? AND LOWER(role) = ?", userID, strings.ToLower(company), strings.ToLower(role))
	if location != nil {
		q = q.Where("LOWER(location) = ?", strings.ToLower(*location))
	}
	return first(q)
}

func (r *jobApplicationRepository) FindByCompanyOverlap(ctx context.Context, userID, company string) ([]domain.JobApplication, error) {
	target := strings.ToLower(strings.TrimSpace(company))
	if target == "" {
		return nil, nil
	}

	var apps []domain.JobApplication
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(`(LOWER(company) LIKE ? ESCAPE '\' OR ? LIKE '%' || `+escapedCompany+` || '%' ESCAPE '\')`, "%"+escapeLike(target)+"%", target).
		Order("created_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *jobApplicationRepository) ApplyUpdate(ctx context.Context, applicationID string, update domain.ApplicationUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&domain.JobApplication{}).
		Where("application_id = ?", applicationID).
		Updates(update.Columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *jobApplicationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.JobApplication, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.JobApplication{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []domain.JobApplication
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func first(q *gorm.DB) (*domain.JobApplication, error) {
	var app domain.JobApplication
	err := q.Order("created_at ASC").First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

// escapedCompany is LOWER(company) with LIKE wildcards escaped, for patterns
// built from the stored value.
const escapedCompany = `REPLACE(REPLACE(REPLACE(LOWER(company), '\', '\\'), '%', '\%'), '_', '\_')`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
