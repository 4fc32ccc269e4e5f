// Package trigger starts jobs from Pub/Sub messages, so an external scheduler
// (Cloud Scheduler, another service) can publish {"job":"dispatch"} instead of
// calling the HTTP endpoint.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"todo-backend/internal/jobs"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Message is the payload of a job trigger
type Message struct {
	Job string `json:"job"`
}

// Runner executes a named job
type Runner interface {
	Run(ctx context.Context, name string) (any, error)
}

type Service struct {
	pubsubClient *pubsub.Client
	runner       Runner
	topicName    string
	subName      string
}

func NewService(ctx context.Context, projectID, topicName, credentialsFile string, runner Runner) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Service{
		pubsubClient: client,
		runner:       runner,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
	}, nil
}

// Start blocks receiving messages until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting job trigger with topic: %s, subscription: %s", s.topicName, s.subName)

	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		log.Printf("[PubSub] %v", err)
		return
	}
	// one job at a time; overlapping runs are safe but wasteful
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := Handle(ctx, s.runner, msg.Data); err != nil {
			log.Printf("[PubSub] %v", err)
		}
		// Failed runs are not redelivered; the next tick retries
		msg.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) Close() error {
	return s.pubsubClient.Close()
}

func (s *Service) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking subscription existence: %w", err)
	}
	if exists {
		return sub, nil
	}

	topic := s.pubsubClient.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking topic existence: %w", err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicName)
	}

	sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	log.Printf("[PubSub] Created subscription: %s", s.subName)
	return sub, nil
}

// Handle decodes a trigger message and runs the job it names
func Handle(ctx context.Context, runner Runner, data []byte) error {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to unmarshal trigger: %w", err)
	}
	if m.Job == "" {
		return errors.New("trigger without job name")
	}

	log.Printf("[PubSub] Running job %s", m.Job)
	summary, err := runner.Run(ctx, m.Job)
	if err != nil {
		return fmt.Errorf("job %s: %w", m.Job, err)
	}
	log.Printf("[PubSub] Job %s done: %+v", m.Job, summary)
	return nil
}

var _ Runner = (*jobs.Registry)(nil)
