package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	accountdomain "jobtrack-backend/internal/account/domain"
	accountrepo "jobtrack-backend/internal/account/repository"
	"jobtrack-backend/pkg/gmail"

	"golang.org/x/oauth2"
)

// MailboxClient is the provider surface needed to keep a watch alive.
type MailboxClient interface {
	GetOrCreateLabel(ctx context.Context, name string) (string, error)
	EnsureFilter(ctx context.Context, labelID, query string) error
	Watch(ctx context.Context, topicName, labelID string) (*gmail.WatchResult, error)
}

// ClientFactory opens a MailboxClient for a decrypted refresh token.
type ClientFactory func(ctx context.Context, refreshToken string) (MailboxClient, error)

type Decrypter interface {
	Decrypt(nonceB64, cipherB64 string) (string, error)
}

// Stats summarizes one refresh batch.
type Stats struct {
	Checked       int   `json:"checked"`
	Candidates    int   `json:"candidates"`
	Refreshed     int   `json:"refreshed"`
	InvalidTokens int   `json:"invalid_tokens"`
	Errors        int   `json:"errors"`
	DurationMS    int64 `json:"duration_ms"`
}

var ErrInvalidGrant = errors.New("refresh token revoked or expired")

// Service renews Gmail watches and prepares new mailboxes.
type Service struct {
	accounts  accountrepo.GmailAccountRepository
	cipher    Decrypter
	newClient ClientFactory
	topic     string
	threshold time.Duration
	now       func() time.Time
}

func NewService(accounts accountrepo.GmailAccountRepository, cipher Decrypter, newClient ClientFactory, topic string, threshold time.Duration) *Service {
	if threshold <= 0 {
		threshold = 24 * time.Hour
	}
	return &Service{
		accounts:  accounts,
		cipher:    cipher,
		newClient: newClient,
		topic:     topic,
		threshold: threshold,
		now:       time.Now,
	}
}

// RefreshAll renews every linked watch that is missing or expires within the threshold.
func (s *Service) RefreshAll(ctx context.Context) (*Stats, error) {
	start := s.now()
	accounts, err := s.accounts.ListLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list linked accounts: %w", err)
	}

	stats := &Stats{Checked: len(accounts)}
	deadline := start.Add(s.threshold)
	for i := range accounts {
		acc := &accounts[i]
		if acc.GmailWatchExpiration != nil && acc.GmailWatchExpiration.After(deadline) {
			continue
		}
		stats.Candidates++

		if err := s.refresh(ctx, acc); err != nil {
			if errors.Is(err, ErrInvalidGrant) {
				stats.InvalidTokens++
			} else {
				stats.Errors++
			}
			log.Printf("[Watch] refresh failed user=%s: %v", acc.UserID, err)
			continue
		}
		stats.Refreshed++
	}

	stats.DurationMS = s.now().Sub(start).Milliseconds()
	log.Printf("[Watch] batch checked=%d candidates=%d refreshed=%d invalid_tokens=%d errors=%d duration_ms=%d",
		stats.Checked, stats.Candidates, stats.Refreshed, stats.InvalidTokens, stats.Errors, stats.DurationMS)
	return stats, nil
}

func (s *Service) refresh(ctx context.Context, acc *accountdomain.GmailAccount) error {
	client, err := s.open(ctx, acc)
	if err != nil {
		return err
	}
	res, err := client.Watch(ctx, s.topic, acc.LabelID())
	if err != nil {
		return classifyGrant(err)
	}
	return s.storeWatch(ctx, acc, res)
}

// SetupMailbox creates the job label and its filter, then starts the watch.
// It returns the label id.
func (s *Service) SetupMailbox(ctx context.Context, userID, labelName, filterQuery string) (string, error) {
	acc, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup account %s: %w", userID, err)
	}
	if acc == nil {
		return "", fmt.Errorf("no gmail account for user %s", userID)
	}

	client, err := s.open(ctx, acc)
	if err != nil {
		return "", err
	}
	labelID, err := client.GetOrCreateLabel(ctx, labelName)
	if err != nil {
		return "", classifyGrant(err)
	}
	if err := client.EnsureFilter(ctx, labelID, filterQuery); err != nil {
		return "", err
	}
	if err := s.accounts.UpdateLabel(ctx, userID, labelID); err != nil {
		return "", fmt.Errorf("store label: %w", err)
	}

	res, err := client.Watch(ctx, s.topic, labelID)
	if err != nil {
		return "", classifyGrant(err)
	}
	if err := s.storeWatch(ctx, acc, res); err != nil {
		return "", err
	}
	log.Printf("[Watch] mailbox ready user=%s label=%s expires=%s", userID, labelID, res.Expiration.Format(time.RFC3339))
	return labelID, nil
}

func (s *Service) open(ctx context.Context, acc *accountdomain.GmailAccount) (MailboxClient, error) {
	if !acc.HasCredential() {
		return nil, fmt.Errorf("user %s has no stored credential", acc.UserID)
	}
	token, err := s.cipher.Decrypt(*acc.RefreshNonceB64, *acc.RefreshCipherB64)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential for user %s: %w", acc.UserID, err)
	}
	client, err := s.newClient(ctx, token)
	if err != nil {
		return nil, classifyGrant(err)
	}
	return client, nil
}

// storeWatch persists the expiration, and the history id only when the
// account has no cursor yet so pending changes are not skipped.
func (s *Service) storeWatch(ctx context.Context, acc *accountdomain.GmailAccount, res *gmail.WatchResult) error {
	historyID := ""
	if acc.GmailLastHistoryID == nil || *acc.GmailLastHistoryID == "" {
		historyID = strconv.FormatUint(res.HistoryID, 10)
	}
	if err := s.accounts.UpdateWatch(ctx, acc.UserID, historyID, res.Expiration); err != nil {
		return fmt.Errorf("store watch: %w", err)
	}
	return nil
}

func classifyGrant(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	if strings.Contains(err.Error(), "invalid_grant") {
		return fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	return err
}
