package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobtrack-backend/internal/ingest/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Subscriber pulls Gmail notifications from a Pub/Sub subscription. It is the
// alternative to the push endpoint for deployments without a public URL.
type Subscriber struct {
	client    *pubsub.Client
	queue     Enqueuer
	topicName string
	subName   string
}

func NewSubscriber(ctx context.Context, projectID, topicName, subName, credentialsFile string, queue Enqueuer) (*Subscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	if subName == "" {
		subName = topicName + "-sub"
	}

	return &Subscriber{
		client:    client,
		queue:     queue,
		topicName: topicName,
		subName:   subName,
	}, nil
}

// Start blocks receiving messages until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.handle(msg.ID, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("receive on %s: %w", s.subName, err)
	}
	return nil
}

// handle reports whether the message should be acked. Malformed payloads are
// acked since redelivery cannot fix them.
func (s *Subscriber) handle(id string, data []byte) bool {
	n, err := ParseNotification(data)
	if err != nil {
		log.Printf("[PubSub] dropping message %s: %v", id, err)
		return true
	}
	if !s.queue.Enqueue(usecase.PushJob{EmailAddress: n.EmailAddress, HistoryID: n.HistoryID}) {
		log.Printf("[PubSub] queue full, nacking message %s", id)
		return false
	}
	log.Printf("[PubSub] queued email=%s history=%d", n.EmailAddress, n.HistoryID)
	return true
}

func (s *Subscriber) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.client.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription %s: %w", s.subName, err)
	}
	if exists {
		return sub, nil
	}

	topic := s.client.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", s.topicName, err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist", s.topicName)
	}

	sub, err = s.client.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription %s: %w", s.subName, err)
	}
	log.Printf("[PubSub] Created subscription: %s", s.subName)
	return sub, nil
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}
