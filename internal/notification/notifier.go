package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	accountrepo "jobtrack-backend/internal/account/repository"
	appusecase "jobtrack-backend/internal/application/usecase"
	"jobtrack-backend/pkg/fcm"
)

// DeviceSender multicasts a notification and returns rejected tokens.
type DeviceSender interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error)
}

const sendTimeout = 10 * time.Second

// DeviceNotifier tells a user's devices when an application appears or its
// status changes. Delivery is best-effort.
type DeviceNotifier struct {
	tokens accountrepo.DeviceTokenRepository
	sender DeviceSender
}

func NewDeviceNotifier(tokens accountrepo.DeviceTokenRepository, sender DeviceSender) *DeviceNotifier {
	return &DeviceNotifier{tokens: tokens, sender: sender}
}

// NotifyApplicationChange sends in the background and returns immediately.
func (n *DeviceNotifier) NotifyApplicationChange(ctx context.Context, change appusecase.ApplicationChange) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		n.send(sendCtx, change)
	}()
}

func (n *DeviceNotifier) send(ctx context.Context, change appusecase.ApplicationChange) {
	tokens, err := n.tokens.GetTokensByUserID(ctx, change.UserID)
	if err != nil {
		log.Printf("[Notifier] Error getting device tokens for user %s: %v", change.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := n.sender.SendToDevices(ctx, tokenStrings, buildNotification(change))
	if err != nil {
		log.Printf("[Notifier] Error sending to user %s: %v", change.UserID, err)
		return
	}
	log.Printf("[Notifier] application=%s sent to %d devices", change.ApplicationID, len(tokenStrings)-len(failed))

	for _, token := range failed {
		if err := n.tokens.DeleteToken(ctx, token); err != nil {
			log.Printf("[Notifier] Error removing stale token: %v", err)
		}
	}
}

func buildNotification(change appusecase.ApplicationChange) fcm.NotificationData {
	title := fmt.Sprintf("%s: %s", change.Company, change.Role)
	body := fmt.Sprintf("Status changed to %s", change.Status)
	if change.Created {
		body = fmt.Sprintf("New application tracked (%s)", change.Status)
	} else if change.PreviousStatus != "" {
		body = fmt.Sprintf("Status changed from %s to %s", change.PreviousStatus, change.Status)
	}

	data := map[string]string{
		"type":           "application_update",
		"application_id": change.ApplicationID,
		"status":         string(change.Status),
	}
	if change.EventType != "" {
		data["event_type"] = string(change.EventType)
	}
	return fcm.NotificationData{
		Title:       title,
		Body:        body,
		Data:        data,
		ClickAction: "/applications/" + change.ApplicationID,
	}
}
