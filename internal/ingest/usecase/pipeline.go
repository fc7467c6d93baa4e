package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	appdomain "jobtrack-backend/internal/application/domain"
	apprepo "jobtrack-backend/internal/application/repository"
	appusecase "jobtrack-backend/internal/application/usecase"
	"jobtrack-backend/internal/ingest/domain"
	"jobtrack-backend/pkg/gmail"
)

// Pipeline ingests one message reference: fetch, dedup, extract, route.
type Pipeline struct {
	refs       apprepo.EmailReferenceRepository
	extractor  Extractor
	reconciler appusecase.Reconciler
	now        func() time.Time
}

func NewPipeline(refs apprepo.EmailReferenceRepository, extractor Extractor, reconciler appusecase.Reconciler) *Pipeline {
	return &Pipeline{
		refs:       refs,
		extractor:  extractor,
		reconciler: reconciler,
		now:        time.Now,
	}
}

// Ingest processes ref for userID. When forceLabelID is set and present on the
// message, the duplicate check is skipped and the label is removed afterwards,
// whatever the result.
func (p *Pipeline) Ingest(ctx context.Context, userID string, ref domain.MessageRef, src MessageSource, forceLabelID string) (*domain.Outcome, error) {
	msg, err := src.GetMessage(ctx, ref.MessageID)
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", ref.MessageID, err)
	}

	forced := gmail.HasLabel(msg, forceLabelID)
	if forced {
		defer p.clearForceLabel(ctx, userID, ref.MessageID, src, forceLabelID)
	}

	existing, err := p.refs.FindByMessageID(ctx, userID, ref.MessageID)
	if err != nil {
		return nil, fmt.Errorf("lookup email ref %s: %w", ref.MessageID, err)
	}
	if existing != nil && !forced {
		log.Printf("[Ingest] duplicate user=%s message=%s email_id=%s", userID, ref.MessageID, existing.ID)
		return &domain.Outcome{Status: domain.OutcomeDuplicate, MessageID: ref.MessageID, EmailID: existing.ID}, nil
	}

	content := gmail.ExtractContent(msg)
	extraction := p.extractor.Extract(ctx, content.Subject, content.Text, content.HTML)
	log.Printf("[Ingest] extracted user=%s message=%s intent=%s company=%q role=%q confidence=%.2f forced=%v",
		userID, ref.MessageID, extraction.Intent, extraction.Company, extraction.Role, extraction.ConfidenceScore, forced)

	emailRef := existing
	created := false
	if emailRef == nil {
		stored, inserted, err := p.refs.Ensure(ctx, newEmailReference(userID, ref, msg.ThreadId, content, extraction, p.now()))
		if err != nil {
			return nil, fmt.Errorf("store email ref %s: %w", ref.MessageID, err)
		}
		if !inserted && !forced {
			// Another worker stored it between the lookup and the insert.
			return &domain.Outcome{Status: domain.OutcomeDuplicate, MessageID: ref.MessageID, EmailID: stored.ID}, nil
		}
		emailRef = stored
		created = inserted
	}
	if !created {
		// forced rerun on a stored email: keep its classification in step
		if err := p.refs.UpdateExtraction(ctx, emailRef.ID, extraction.Intent, extraction.ConfidenceScore, p.now()); err != nil {
			return nil, fmt.Errorf("update email ref %s: %w", ref.MessageID, err)
		}
	}

	outcome := &domain.Outcome{
		MessageID:  ref.MessageID,
		EmailID:    emailRef.ID,
		Forced:     forced,
		Extraction: extraction,
	}

	if extraction.Intent == appdomain.IntentGeneral {
		outcome.Status = domain.OutcomeSkipped
		return outcome, nil
	}

	result, err := p.reconciler.Reconcile(ctx, userID, extraction, emailRef.ID)
	if err != nil {
		return nil, fmt.Errorf("reconcile message %s: %w", ref.MessageID, err)
	}
	outcome.Status = domain.OutcomeProcessed
	outcome.ApplicationID = result.ApplicationID
	outcome.CreatedNewApplication = result.CreatedNewApplication
	return outcome, nil
}

func (p *Pipeline) clearForceLabel(ctx context.Context, userID, messageID string, src MessageSource, labelID string) {
	if err := src.ModifyMessageLabels(context.WithoutCancel(ctx), messageID, nil, []string{labelID}); err != nil {
		log.Printf("[Ingest] failed to clear force label user=%s message=%s: %v", userID, messageID, err)
		return
	}
	log.Printf("[Ingest] cleared force label user=%s message=%s", userID, messageID)
}

func newEmailReference(userID string, ref domain.MessageRef, threadID string, content *gmail.Content, ex *appdomain.ExtractionResult, parsedAt time.Time) *appdomain.EmailReference {
	r := &appdomain.EmailReference{
		UserID:            userID,
		ExternalMessageID: ref.MessageID,
		Sender:            content.Sender,
		Subject:           content.Subject,
		Intent:            ex.Intent,
		ConfidenceScore:   ex.ConfidenceScore,
		ReceivedAt:        content.ReceivedAt,
		ParsedAt:          parsedAt,
	}
	if ref.ThreadID != "" {
		threadID = ref.ThreadID
	}
	if threadID != "" {
		r.ThreadID = &threadID
	}
	if ref.HistoryID != "" {
		h := ref.HistoryID
		r.HistoryCursor = &h
	}
	if content.Text != "" {
		text := content.Text
		r.BodyText = &text
	}
	if content.HTML != "" {
		html := content.HTML
		r.BodyHTML = &html
	}
	return r
}
