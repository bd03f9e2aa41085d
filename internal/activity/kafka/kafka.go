package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher delivers activity payloads to a Kafka topic.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher connects to the brokers and makes sure the activity topic
// exists. Topic creation is idempotent so concurrent instances are safe.
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Already-exists races with other instances are fine.
		if resp, describeErr := admin.ListTopics(ctx, topic); describeErr != nil || !resp.Has(topic) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", topic, err)
		}
	}

	return &Publisher{client: client, topic: topic}, nil
}

// Publish delivers one payload synchronously, keyed so entries for the same
// key land on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: payload}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
