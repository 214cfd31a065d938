// Package mq carries the compensating-action side of best-effort deletes:
// when the media gateway cannot remove bytes for a record the user deleted,
// the ids are published for offline reconciliation instead of being lost in
// a log line.
package mq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const cleanupExchange = "cms.cleanup"

func NewConnection(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}

type CleanupEvent struct {
	FileIDs []string  `json:"fileIds"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

type CleanupPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewCleanupPublisher(conn *amqp.Connection) (*CleanupPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(cleanupExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &CleanupPublisher{conn: conn, channel: ch}, nil
}

func (p *CleanupPublisher) NotifyFailedCleanup(ctx context.Context, fileIDs []string, reason string) error {
	body, err := json.Marshal(CleanupEvent{FileIDs: fileIDs, Reason: reason, At: time.Now()})
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, cleanupExchange, "storage.cleanup.failed", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
}

func (p *CleanupPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
