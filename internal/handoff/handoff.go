// Package handoff forwards finished transcripts to downstream consumers
// (summarisation) over Pub/Sub.
package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Message is the payload published for each transcript.
type Message struct {
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Notifier hands a transcript off. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type Publisher struct {
	Topic   *pubsub.Topic
	Timeout time.Duration
}

func NewPublisher(topic *pubsub.Topic) *Publisher {
	return &Publisher{Topic: topic, Timeout: 2 * time.Second}
}

func (p *Publisher) Notify(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	publishCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	res := p.Topic.Publish(publishCtx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"source": msg.Source},
	})
	_, err = res.Get(publishCtx)
	return err
}

// Ready fails when the topic cannot be reached or does not exist.
func (p *Publisher) Ready(ctx context.Context) error {
	exists, err := p.Topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("topic %s does not exist", p.Topic.ID())
	}
	return nil
}

func EnsureTopic(ctx context.Context, client *pubsub.Client, topicName string) error {
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = client.CreateTopic(ctx, topicName)
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return err
}

// EnsureTopicWithRetry is used against the emulator, which may still be
// starting when the server boots.
func EnsureTopicWithRetry(ctx context.Context, client *pubsub.Client, topicName string, attempts int, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := EnsureTopic(ctx, client, topicName); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
