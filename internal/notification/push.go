package notification

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"jobtrack-backend/internal/ingest/usecase"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
)

// Enqueuer accepts push jobs without blocking.
type Enqueuer interface {
	Enqueue(job usecase.PushJob) bool
}

// TokenValidator verifies a Google-signed OIDC token. *idtoken.Validator satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// PushHandler receives Gmail notifications from a Pub/Sub push subscription.
type PushHandler struct {
	queue          Enqueuer
	validator      TokenValidator
	audience       string
	serviceAccount string
}

func NewPushHandler(queue Enqueuer) *PushHandler {
	return &PushHandler{queue: queue}
}

// SetVerifier enables OIDC checks on incoming pushes.
func (h *PushHandler) SetVerifier(v TokenValidator, audience, serviceAccount string) {
	h.validator = v
	h.audience = audience
	h.serviceAccount = serviceAccount
}

// HandleGmailPush answers 204 once the job is queued. Any failure answers 5xx
// so Pub/Sub redelivers; ingestion is idempotent.
func (h *PushHandler) HandleGmailPush(c *gin.Context) {
	if err := h.verify(c); err != nil {
		log.Printf("[Push] rejected: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unauthorized push"})
		return
	}

	var env PushEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		log.Printf("[Push] bad envelope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid envelope"})
		return
	}
	raw, err := DecodeEnvelopeData(env.Message.Data)
	if err != nil {
		log.Printf("[Push] bad envelope message=%s: %v", env.Message.MessageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid envelope"})
		return
	}
	n, err := ParseNotification(raw)
	if err != nil {
		log.Printf("[Push] bad payload message=%s: %v", env.Message.MessageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid envelope"})
		return
	}

	if !h.queue.Enqueue(usecase.PushJob{EmailAddress: n.EmailAddress, HistoryID: n.HistoryID}) {
		log.Printf("[Push] queue full, asking for redelivery email=%s history=%d", n.EmailAddress, n.HistoryID)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "busy"})
		return
	}

	log.Printf("[Push] queued email=%s history=%d message=%s", n.EmailAddress, n.HistoryID, env.Message.MessageID)
	c.Status(http.StatusNoContent)
}

func (h *PushHandler) verify(c *gin.Context) error {
	if h.validator == nil {
		return nil
	}
	authHeader := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return errors.New("missing bearer token")
	}

	payload, err := h.validator.Validate(c.Request.Context(), token, h.audience)
	if err != nil {
		return err
	}
	if !googleIssuers[payload.Issuer] {
		return errors.New("unexpected issuer " + payload.Issuer)
	}
	if h.serviceAccount != "" {
		email, _ := payload.Claims["email"].(string)
		if email != h.serviceAccount {
			return errors.New("unexpected service account " + email)
		}
	}
	return nil
}
