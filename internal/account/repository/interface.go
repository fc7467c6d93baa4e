package repository

import (
	"context"
	"time"

	"jobtrack-backend/internal/account/domain"
)

// GmailAccountRepository defines the store operations on gmail_accounts
type GmailAccountRepository interface {
	Save(ctx context.Context, account *domain.GmailAccount) error
	FindByGmailEmail(ctx context.Context, email string) (*domain.GmailAccount, error)
	FindByUserID(ctx context.Context, userID string) (*domain.GmailAccount, error)
	// AdvanceCursor stores historyID only if it is numerically past the stored
	// cursor, checked in the same statement. It reports whether a row changed.
	AdvanceCursor(ctx context.Context, userID, historyID string) (bool, error)
	// UpdateWatch stores the watch expiration, and historyID when it is non-empty.
	UpdateWatch(ctx context.Context, userID, historyID string, expiration time.Time) error
	UpdateLabel(ctx context.Context, userID, labelID string) error
	UpdateCredential(ctx context.Context, userID, nonceB64, cipherB64 string, keyVersion int) error
	// ListLinked returns accounts with a label and a stored credential.
	ListLinked(ctx context.Context) ([]domain.GmailAccount, error)
}

// DeviceTokenRepository defines the store operations on device_tokens
type DeviceTokenRepository interface {
	SaveToken(ctx context.Context, userID, token, platform string) error
	GetTokensByUserID(ctx context.Context, userID string) ([]domain.DeviceToken, error)
	DeleteToken(ctx context.Context, token string) error
}
