package usecase

import (
	"context"

	appdomain "jobtrack-backend/internal/application/domain"
	"jobtrack-backend/pkg/gmail"

	gmailapi "google.golang.org/api/gmail/v1"
)

// MessageSource fetches messages and edits their labels.
type MessageSource interface {
	GetMessage(ctx context.Context, messageID string) (*gmailapi.Message, error)
	ModifyMessageLabels(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) error
}

// MailClient is the per-mailbox provider surface used by a push dispatch.
type MailClient interface {
	HistorySource
	MessageSource
	FindLabelID(ctx context.Context, name string) (string, error)
}

// MailClientFactory opens a MailClient for a decrypted refresh token.
// onRotate is called when the provider hands back a new refresh token.
type MailClientFactory func(ctx context.Context, refreshToken string, onRotate gmail.TokenUpdateFunc) (MailClient, error)

// Extractor classifies one email. Implementations never fail; they degrade
// to a GENERAL result instead.
type Extractor interface {
	Extract(ctx context.Context, subject, bodyText, bodyHTML string) *appdomain.ExtractionResult
}

// CredentialCipher opens and re-seals stored refresh tokens.
type CredentialCipher interface {
	Decrypt(nonceB64, cipherB64 string) (string, error)
	Encrypt(plaintext string) (nonceB64, cipherB64 string, err error)
	Version() int
}
