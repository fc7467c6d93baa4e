package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jobtrack-backend/internal/account/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gmailAccountRepository struct {
	db *gorm.DB
}

func NewGmailAccountRepository(db *gorm.DB) GmailAccountRepository {
	return &gmailAccountRepository{db: db}
}

// Save inserts or replaces the account for account.UserID.
func (r *gmailAccountRepository) Save(ctx context.Context, account *domain.GmailAccount) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gmail_email", "gmail_label_id", "gmail_last_history_id", "gmail_watch_expiration",
			"gmail_refresh_cipher_b64", "gmail_refresh_nonce_b64", "gmail_key_version", "updated_at",
		}),
	}).Create(account).Error
}

func (r *gmailAccountRepository) FindByGmailEmail(ctx context.Context, email string) (*domain.GmailAccount, error) {
	return r.first(r.db.WithContext(ctx).Where("gmail_email = ?", email))
}

func (r *gmailAccountRepository) FindByUserID(ctx context.Context, userID string) (*domain.GmailAccount, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *gmailAccountRepository) AdvanceCursor(ctx context.Context, userID, historyID string) (bool, error) {
	next, err := strconv.ParseInt(historyID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid history id %q: %w", historyID, err)
	}

	res := r.db.WithContext(ctx).Model(&domain.GmailAccount{}).
		Where("user_id = ?", userID).
		Where("(gmail_last_history_id IS NULL OR gmail_last_history_id = '' OR CAST(gmail_last_history_id AS BIGINT) < ?)", next).
		Updates(map[string]interface{}{
			"gmail_last_history_id": historyID,
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gmailAccountRepository) UpdateWatch(ctx context.Context, userID, historyID string, expiration time.Time) error {
	cols := map[string]interface{}{
		"gmail_watch_expiration": expiration,
		"updated_at":             time.Now(),
	}
	if historyID != "" {
		cols["gmail_last_history_id"] = historyID
	}
	return r.update(ctx, userID, cols)
}

func (r *gmailAccountRepository) UpdateLabel(ctx context.Context, userID, labelID string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"gmail_label_id": labelID,
		"updated_at":     time.Now(),
	})
}

func (r *gmailAccountRepository) UpdateCredential(ctx context.Context, userID, nonceB64, cipherB64 string, keyVersion int) error {
	return r.update(ctx, userID, map[string]interface{}{
		"gmail_refresh_nonce_b64":  nonceB64,
		"gmail_refresh_cipher_b64": cipherB64,
		"gmail_key_version":        keyVersion,
		"updated_at":               time.Now(),
	})
}

func (r *gmailAccountRepository) ListLinked(ctx context.Context) ([]domain.GmailAccount, error) {
	var accounts []domain.GmailAccount
	err := r.db.WithContext(ctx).
		Where("gmail_label_id IS NOT NULL AND gmail_label_id <> ''").
		Where("gmail_refresh_cipher_b64 IS NOT NULL AND gmail_refresh_nonce_b64 IS NOT NULL").
		Order("user_id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *gmailAccountRepository) update(ctx context.Context, userID string, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&domain.GmailAccount{}).Where("user_id = ?", userID).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gmailAccountRepository) first(q *gorm.DB) (*domain.GmailAccount, error) {
	var account domain.GmailAccount
	if err := q.First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}
