package notification

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"jobtrack-backend/internal/ingest/domain"
)

var ErrMalformedNotification = errors.New("malformed gmail notification")

// PushEnvelope is the body Pub/Sub POSTs to a push endpoint.
type PushEnvelope struct {
	Message struct {
		Data        string            `json:"data"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodeEnvelopeData base64-decodes the envelope payload.
func DecodeEnvelopeData(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(data); err != nil {
			return nil, fmt.Errorf("%w: data is not base64", ErrMalformedNotification)
		}
	}
	return raw, nil
}

// ParseNotification decodes the JSON Gmail publishes on the watch topic.
func ParseNotification(raw []byte) (*domain.PushNotification, error) {
	var n domain.PushNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	if n.EmailAddress == "" || n.HistoryID == 0 {
		return nil, fmt.Errorf("%w: emailAddress and historyId are required", ErrMalformedNotification)
	}
	return &n, nil
}
