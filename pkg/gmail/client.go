package gmail

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

const (
	LabelColorBackground = "#149e60"
	LabelColorText       = "#ffffff"
)

// DefaultFilterQuery routes recruiting mail into the job label.
const DefaultFilterQuery = `(category:primary OR from:(@linkedin.com @indeed.com)) AND (` +
	`subject:("application received" OR "thank you for applying" OR ` +
	`"your application to" OR "application submitted" OR ` +
	`"interview invitation" OR "interview scheduled" OR "interview" OR ` +
	`"software" OR "technical interview" OR "developer" OR "engineer" OR "backend" OR ` +
	`"schedule interview" OR "assessment" OR "assessment invite" OR ` +
	`"assessment requested" OR "assessment instructions" OR ` +
	`"online assessment" OR "coding assessment" OR "coding test" OR ` +
	`"technical test" OR "take-home assignment" OR "challenge" OR "assignment" OR ` +
	`"offer letter" OR "job offer" OR ` +
	`"regret to inform" OR "application status" OR ` +
	`"decision on your application") ` +
	`OR ` +
	`from:(*@greenhouse.io *@lever.co *@ashbyhq.com *@smartrecruiters.com ` +
	`*@myworkday.com *@workday.com *@recruitee.com *@workablemail.com)) ` +
	`-category:promotions ` +
	`-subject:(sale OR discount OR "% off" OR "free shipping" OR newsletter OR digest OR webinar OR promo OR event)`

// Client is a Gmail API client bound to one mailbox.
type Client struct {
	srv  *gmail.Service
	user string
}

// WatchResult is what users.watch returns.
type WatchResult struct {
	HistoryID  uint64
	Expiration time.Time
}

// ListHistory returns one page of messageAdded and labelAdded changes after startHistoryID.
func (c *Client) ListHistory(ctx context.Context, startHistoryID uint64, pageToken string) (*gmail.ListHistoryResponse, error) {
	call := c.srv.Users.History.List(c.user).
		StartHistoryId(startHistoryID).
		HistoryTypes("messageAdded", "labelAdded").
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list history from %d: %w", startHistoryID, err)
	}
	return resp, nil
}

// GetMessage fetches the full message including the MIME tree.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	msg, err := c.srv.Users.Messages.Get(c.user, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	return msg, nil
}

// ModifyMessageLabels adds and/or removes labels from a message
func (c *Client) ModifyMessageLabels(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) error {
	modifyReq := &gmail.ModifyMessageRequest{}
	if len(addLabelIDs) > 0 {
		modifyReq.AddLabelIds = addLabelIDs
	}
	if len(removeLabelIDs) > 0 {
		modifyReq.RemoveLabelIds = removeLabelIDs
	}

	if _, err := c.srv.Users.Messages.Modify(c.user, messageID, modifyReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to modify message labels: %w", err)
	}
	return nil
}

// FindLabelID returns the id of the label with the given name, or "".
func (c *Client) FindLabelID(ctx context.Context, name string) (string, error) {
	resp, err := c.srv.Users.Labels.List(c.user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}
	for _, l := range resp.Labels {
		if l.Name == name {
			return l.Id, nil
		}
	}
	return "", nil
}

// GetOrCreateLabel returns the id of the named label, creating it if missing.
func (c *Client) GetOrCreateLabel(ctx context.Context, name string) (string, error) {
	id, err := c.FindLabelID(ctx, name)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	created, err := c.srv.Users.Labels.Create(c.user, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
		Color: &gmail.LabelColor{
			BackgroundColor: LabelColorBackground,
			TextColor:       LabelColorText,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	log.Printf("[Gmail] created label %q id=%s", name, created.Id)
	return created.Id, nil
}

// EnsureFilter makes sure one filter adds labelID for query. A filter on the
// same label with a different query is replaced.
func (c *Client) EnsureFilter(ctx context.Context, labelID, query string) error {
	filters := c.srv.Users.Settings.Filters
	resp, err := filters.List(c.user).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list filters: %w", err)
	}

	for _, f := range resp.Filter {
		if f.Action == nil || !hasLabel(f.Action.AddLabelIds, labelID) {
			continue
		}
		if f.Criteria != nil && strings.TrimSpace(f.Criteria.Query) == strings.TrimSpace(query) {
			return nil
		}
		if err := filters.Delete(c.user, f.Id).Context(ctx).Do(); err != nil {
			log.Printf("[Gmail] failed to delete stale filter %s: %v", f.Id, err)
		}
		break
	}

	_, err = filters.Create(c.user, &gmail.Filter{
		Criteria: &gmail.FilterCriteria{Query: query},
		Action: &gmail.FilterAction{
			AddLabelIds:    []string{labelID},
			RemoveLabelIds: []string{"SPAM"},
		},
	}).Context(ctx).Do()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("create filter: %w", err)
	}
	return nil
}

// Watch sets up push notifications restricted to labelID.
func (c *Client) Watch(ctx context.Context, topicName, labelID string) (*WatchResult, error) {
	req := &gmail.WatchRequest{
		TopicName:           topicName,
		LabelIds:            []string{labelID},
		LabelFilterBehavior: "INCLUDE",
	}

	resp, err := c.srv.Users.Watch(c.user, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to watch mailbox: %w", err)
	}

	return &WatchResult{
		HistoryID:  resp.HistoryId,
		Expiration: time.UnixMilli(resp.Expiration).UTC(),
	}, nil
}

// Stop stops push notifications for the user's mailbox
func (c *Client) Stop(ctx context.Context) error {
	if err := c.srv.Users.Stop(c.user).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %w", err)
	}
	return nil
}

func hasLabel(labels []string, labelID string) bool {
	for _, l := range labels {
		if l == labelID {
			return true
		}
	}
	return false
}

// HasLabel reports whether msg currently carries labelID.
func HasLabel(msg *gmail.Message, labelID string) bool {
	if msg == nil || labelID == "" {
		return false
	}
	return hasLabel(msg.LabelIds, labelID)
}
