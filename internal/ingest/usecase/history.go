package usecase

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"jobtrack-backend/internal/ingest/domain"

	"google.golang.org/api/gmail/v1"
)

// HistorySource pages through a mailbox change log.
type HistorySource interface {
	ListHistory(ctx context.Context, startHistoryID uint64, pageToken string) (*gmail.ListHistoryResponse, error)
}

// ProcessHistory walks every history page after sinceCursor and returns the
// messages that carry labelID, in first-seen order and without duplicates,
// plus the largest history id observed. Any provider error aborts the walk
// with no cursor returned.
func ProcessHistory(ctx context.Context, userID string, src HistorySource, sinceCursor, labelID string) ([]domain.MessageRef, string, error) {
	since, err := strconv.ParseUint(sinceCursor, 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("invalid history cursor %q: %w", sinceCursor, err)
	}

	var (
		refs   []domain.MessageRef
		seen   = make(map[string]bool)
		latest = since
		token  string
	)

	collect := func(msg *gmail.Message, historyID uint64, source string) {
		if msg == nil || msg.Id == "" || seen[msg.Id] {
			return
		}
		seen[msg.Id] = true
		refs = append(refs, domain.MessageRef{
			MessageID: msg.Id,
			ThreadID:  msg.ThreadId,
			HistoryID: strconv.FormatUint(historyID, 10),
		})
		log.Printf("[History] ref collected user=%s message=%s history=%d source=%s", userID, msg.Id, historyID, source)
	}

	log.Printf("[History] start user=%s since=%s label=%s", userID, sinceCursor, labelID)
	for {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		resp, err := src.ListHistory(ctx, since, token)
		if err != nil {
			return nil, "", fmt.Errorf("history page: %w", err)
		}

		for _, h := range resp.History {
			if h == nil {
				continue
			}
			if h.Id > latest {
				latest = h.Id
			}
			for _, added := range h.MessagesAdded {
				if added != nil && added.Message != nil && containsLabel(added.Message.LabelIds, labelID) {
					collect(added.Message, h.Id, "messagesAdded")
				}
			}
			// labels may be applied by a filter after the message arrived
			for _, labeled := range h.LabelsAdded {
				if labeled == nil || labeled.Message == nil {
					continue
				}
				if containsLabel(labeled.LabelIds, labelID) || containsLabel(labeled.Message.LabelIds, labelID) {
					collect(labeled.Message, h.Id, "labelsAdded")
				}
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}

	cursor := strconv.FormatUint(latest, 10)
	log.Printf("[History] done user=%s refs=%d cursor=%s", userID, len(refs), cursor)
	return refs, cursor, nil
}

func containsLabel(labels []string, labelID string) bool {
	for _, l := range labels {
		if l == labelID {
			return true
		}
	}
	return false
}
