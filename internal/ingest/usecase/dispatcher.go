package usecase

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	accountdomain "jobtrack-backend/internal/account/domain"
	accountrepo "jobtrack-backend/internal/account/repository"
	"jobtrack-backend/internal/ingest/domain"

	"golang.org/x/oauth2"
)

// Dispatcher turns one push notification into a processed batch of refs.
type Dispatcher struct {
	accounts       accountrepo.GmailAccountRepository
	cipher         CredentialCipher
	newClient      MailClientFactory
	pipeline       *Pipeline
	forceLabelName string
}

func NewDispatcher(
	accounts accountrepo.GmailAccountRepository,
	cipher CredentialCipher,
	newClient MailClientFactory,
	pipeline *Pipeline,
	forceLabelName string,
) *Dispatcher {
	return &Dispatcher{
		accounts:       accounts,
		cipher:         cipher,
		newClient:      newClient,
		pipeline:       pipeline,
		forceLabelName: forceLabelName,
	}
}

// HandlePush processes everything new in the mailbox of emailAddress. The
// stored cursor wins over pushedHistoryID. Unknown or half-linked accounts
// return a nil result and no error so the transport does not redeliver.
func (d *Dispatcher) HandlePush(ctx context.Context, emailAddress string, pushedHistoryID uint64) (*domain.BatchResult, error) {
	return d.dispatch(ctx, emailAddress, strconv.FormatUint(pushedHistoryID, 10), false)
}

// Replay reprocesses a mailbox from sinceHistoryID regardless of the stored cursor.
func (d *Dispatcher) Replay(ctx context.Context, emailAddress, sinceHistoryID string) (*domain.BatchResult, error) {
	return d.dispatch(ctx, emailAddress, sinceHistoryID, true)
}

func (d *Dispatcher) dispatch(ctx context.Context, emailAddress, cursor string, overrideCursor bool) (*domain.BatchResult, error) {
	account, err := d.accounts.FindByGmailEmail(ctx, emailAddress)
	if err != nil {
		return nil, fmt.Errorf("lookup account %s: %w", emailAddress, err)
	}
	if account == nil {
		log.Printf("[Dispatcher] no account for %s, ignoring push", emailAddress)
		return nil, nil
	}
	userID := account.UserID

	labelID := account.LabelID()
	if labelID == "" {
		log.Printf("[Dispatcher] WARN user=%s has no job label, ignoring push", userID)
		return nil, nil
	}
	if !account.HasCredential() {
		log.Printf("[Dispatcher] WARN user=%s has no stored credential, ignoring push", userID)
		return nil, nil
	}

	refreshToken, err := d.cipher.Decrypt(*account.RefreshNonceB64, *account.RefreshCipherB64)
	if err != nil {
		log.Printf("[Dispatcher] WARN user=%s credential could not be decrypted: %v", userID, err)
		return nil, nil
	}

	client, err := d.newClient(ctx, refreshToken, d.rotateCredential(ctx, userID))
	if err != nil {
		return nil, fmt.Errorf("open mailbox for user %s: %w", userID, err)
	}

	since := cursor
	if !overrideCursor && account.GmailLastHistoryID != nil && *account.GmailLastHistoryID != "" {
		since = *account.GmailLastHistoryID
	}

	refs, newCursor, err := ProcessHistory(ctx, userID, client, since, labelID)
	if err != nil {
		return nil, fmt.Errorf("walk history for user %s: %w", userID, err)
	}

	forceLabelID := d.resolveForceLabel(ctx, userID, client)

	result := &domain.BatchResult{UserID: userID, Refs: len(refs), NewCursor: newCursor}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			log.Printf("[Dispatcher] user=%s cancelled after %d/%d refs", userID, len(result.Outcomes)+len(result.Failed), len(refs))
			break
		}
		outcome, err := d.ingest(ctx, userID, ref, client, forceLabelID)
		if err != nil {
			log.Printf("[Dispatcher] ERROR user=%s message=%s history=%s: %v", userID, ref.MessageID, ref.HistoryID, err)
			result.Failed = append(result.Failed, domain.RefError{MessageID: ref.MessageID, Err: err})
			continue
		}
		result.Outcomes = append(result.Outcomes, *outcome)
	}

	d.persistCursor(ctx, account, newCursor)

	log.Printf("[Dispatcher] done user=%s refs=%d ok=%d failed=%d cursor=%s", userID, len(refs), len(result.Outcomes), len(result.Failed), newCursor)
	return result, nil
}

// ingest runs the pipeline for one ref, turning a panic into that ref's error.
func (d *Dispatcher) ingest(ctx context.Context, userID string, ref domain.MessageRef, client MailClient, forceLabelID string) (outcome *domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Dispatcher] PANIC user=%s message=%s: %v\n%s", userID, ref.MessageID, r, debug.Stack())
			outcome, err = nil, fmt.Errorf("ingest panicked: %v", r)
		}
	}()
	return d.pipeline.Ingest(ctx, userID, ref, client, forceLabelID)
}

// persistCursor stores newCursor when it moves the account forward. The
// comparison runs in the store so a slower concurrent dispatch for the same
// mailbox cannot move the cursor back.
func (d *Dispatcher) persistCursor(ctx context.Context, account *accountdomain.GmailAccount, newCursor string) {
	if _, err := strconv.ParseUint(newCursor, 10, 64); err != nil {
		return
	}
	advanced, err := d.accounts.AdvanceCursor(context.WithoutCancel(ctx), account.UserID, newCursor)
	if err != nil {
		log.Printf("[Dispatcher] failed to persist cursor user=%s cursor=%s: %v", account.UserID, newCursor, err)
		return
	}
	if !advanced {
		log.Printf("[Dispatcher] cursor not advanced user=%s cursor=%s (stored cursor is newer)", account.UserID, newCursor)
	}
}

func (d *Dispatcher) resolveForceLabel(ctx context.Context, userID string, client MailClient) string {
	if d.forceLabelName == "" {
		return ""
	}
	id, err := client.FindLabelID(ctx, d.forceLabelName)
	if err != nil {
		log.Printf("[Dispatcher] force label lookup failed user=%s: %v", userID, err)
		return ""
	}
	return id
}

func (d *Dispatcher) rotateCredential(ctx context.Context, userID string) func(*oauth2.Token) error {
	return func(t *oauth2.Token) error {
		nonce, sealed, err := d.cipher.Encrypt(t.RefreshToken)
		if err != nil {
			return err
		}
		return d.accounts.UpdateCredential(context.WithoutCancel(ctx), userID, nonce, sealed, d.cipher.Version())
	}
}
