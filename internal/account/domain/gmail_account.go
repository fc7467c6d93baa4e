package domain

import "time"

// GmailAccount holds one user's linked mailbox and its watch state.
// The refresh token is stored encrypted; the plaintext never touches this struct.
type GmailAccount struct {
	UserID               string     `json:"user_id" gorm:"primaryKey"`
	GmailEmail           string     `json:"gmail_email" gorm:"uniqueIndex;not null"`
	GmailLabelID         *string    `json:"gmail_label_id,omitempty"`
	GmailLastHistoryID   *string    `json:"gmail_last_history_id,omitempty"`
	GmailWatchExpiration *time.Time `json:"gmail_watch_expiration,omitempty"`
	RefreshCipherB64     *string    `json:"-" gorm:"column:gmail_refresh_cipher_b64"`
	RefreshNonceB64      *string    `json:"-" gorm:"column:gmail_refresh_nonce_b64"`
	KeyVersion           int        `json:"gmail_key_version" gorm:"column:gmail_key_version;default:1"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (GmailAccount) TableName() string {
	return "gmail_accounts"
}

// LabelID returns the watched label id or "".
func (a *GmailAccount) LabelID() string {
	if a.GmailLabelID == nil {
		return ""
	}
	return *a.GmailLabelID
}

// HasCredential reports whether an encrypted refresh token is stored.
func (a *GmailAccount) HasCredential() bool {
	return a.RefreshCipherB64 != nil && *a.RefreshCipherB64 != "" &&
		a.RefreshNonceB64 != nil && *a.RefreshNonceB64 != ""
}
