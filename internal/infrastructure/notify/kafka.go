package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/infrastructure/kafka"
)

// KafkaChannel extends the in-process Hub across processes by relaying
// changes through a Kafka topic. Each channel instance tags outgoing
// messages with its own ID and drops incoming messages carrying it, so a
// process never re-applies its own writes.
type KafkaChannel struct {
	id       string
	producer *kafka.Producer
	consumer *kafka.Consumer
	hub      *Hub
}

type wireChange struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func NewKafkaChannel(brokers []string, topic, groupID string) *KafkaChannel {
	return &KafkaChannel{
		id:       uuid.New().String(),
		producer: kafka.NewProducer(brokers, topic),
		consumer: kafka.NewConsumer(brokers, topic, groupID),
		hub:      NewHub(),
	}
}

// Run consumes relayed changes until ctx is cancelled.
func (k *KafkaChannel) Run(ctx context.Context) error {
	return k.consumer.Consume(ctx, k.handleMessage)
}

func (k *KafkaChannel) handleMessage(ctx context.Context, key, value []byte) error {
	var wc wireChange
	if err := json.Unmarshal(value, &wc); err != nil {
		log.Printf("[Notify] Dropping malformed change message: %v", err)
		return nil
	}
	if wc.Origin == k.id {
		return nil
	}
	// origin 0 is never allocated to a subscriber, so everyone local sees it
	k.hub.broadcast(0, Change{Key: wc.Key, Value: wc.Value})
	return nil
}

// Subscribe registers a local listener. Its publisher fans out to the
// other local subscribers and relays through Kafka to other processes.
func (k *KafkaChannel) Subscribe() (Subscription, Publisher) {
	sub, local := k.hub.Subscribe()
	return sub, &kafkaPublisher{channel: k, local: local}
}

func (k *KafkaChannel) Close() error {
	if err := k.producer.Close(); err != nil {
		return err
	}
	return k.consumer.Close()
}

type kafkaPublisher struct {
	channel *KafkaChannel
	local   Publisher
}

func (p *kafkaPublisher) Publish(ctx context.Context, c Change) error {
	if err := p.local.Publish(ctx, c); err != nil {
		return err
	}
	return p.channel.producer.Publish(ctx, c.Key, wireChange{
		Origin: p.channel.id,
		Key:    c.Key,
		Value:  c.Value,
	})
}
