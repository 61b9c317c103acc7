package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tnqbao/gau-media-service/infra"
	"github.com/tnqbao/gau-media-service/infra/produce"
	"github.com/tnqbao/gau-media-service/repository"
	"gorm.io/gorm"
)

const blobDeleteMaxRetries = 3

type MediaConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
	retryDelay time.Duration
}

func NewMediaConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *MediaConsumer {
	return &MediaConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
		retryDelay: 2 * time.Second,
	}
}

func (c *MediaConsumer) Start(ctx context.Context) error {
	if err := c.startBlobDeleteConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start media blob delete consumer: %w", err)
	}

	return nil
}

func (c *MediaConsumer) startBlobDeleteConsumer(ctx context.Context) error {
	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		produce.MediaBlobDeleteQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register blob delete consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Media Consumer] Started listening for blob delete jobs on queue: %s", produce.MediaBlobDeleteQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Media Consumer - Blob Delete] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Media Consumer - Blob Delete] Channel closed")
					return
				}
				c.handleBlobDelete(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *MediaConsumer) handleBlobDelete(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Media Consumer - Blob Delete] Received message: %s", string(msg.Body))

	var payload produce.DeleteBlobMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Media Consumer - Blob Delete] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if payload.FilePath == "" {
		c.infra.Logger.ErrorWithContextf(ctx, nil, "[Media Consumer - Blob Delete] Message for media %s has no file path", payload.MediaID)
		_ = msg.Nack(false, false)
		return
	}

	var err error
	for attempt := 1; attempt <= blobDeleteMaxRetries; attempt++ {
		err = c.executeBlobDelete(ctx, payload)
		if err == nil {
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Media Consumer - Blob Delete] Attempt %d/%d failed: %v", attempt, blobDeleteMaxRetries, err)

		if attempt < blobDeleteMaxRetries {
			select {
			case <-ctx.Done():
				_ = msg.Nack(false, true)
				return
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}
	}

	// A message that already came back once goes to the dead letter queue.
	if msg.Redelivered {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Media Consumer - Blob Delete] Failed after %d attempts on redelivery, dead-lettering %s", blobDeleteMaxRetries, payload.FilePath)
		_ = msg.Nack(false, false)
		return
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Media Consumer - Blob Delete] Failed after %d attempts, requeueing message", blobDeleteMaxRetries)
	_ = msg.Nack(false, true)
}

// executeBlobDelete removes the object unless a media row still points at it,
// which happens when the same key was uploaded again after the delete.
func (c *MediaConsumer) executeBlobDelete(ctx context.Context, payload produce.DeleteBlobMessage) error {
	if payload.MediaID != "" {
		media, err := c.repository.MediaRepo.FindByID(ctx, payload.MediaID)
		switch {
		case err == nil && media.FilePath == payload.FilePath:
			c.infra.Logger.InfoWithContextf(ctx, "[Media Consumer - Blob Delete] %s is still referenced by media %s, skipping", payload.FilePath, payload.MediaID)
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to check media %s: %w", payload.MediaID, err)
		}
	}

	if err := c.infra.Storage.Remove(ctx, payload.FilePath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", payload.FilePath, err)
	}

	if c.infra.Redis != nil {
		_ = c.infra.Redis.DeletePresignedURL(ctx, payload.MediaID)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Media Consumer - Blob Delete] Removed %s (%s)", payload.FilePath, payload.Reason)
	return nil
}
