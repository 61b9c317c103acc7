package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MediaExchange             = "media.exchange"
	MediaBlobDeleteQueue      = "media.blob.delete"
	MediaBlobDeleteRoutingKey = "media.blob.delete"

	// Rejected blob delete jobs are parked here for inspection.
	MediaDeadLetterExchange       = "media.dlx"
	MediaBlobDeleteDeadQueue      = "media.blob.delete.dead"
	MediaBlobDeleteDeadRoutingKey = "media.blob.delete.dead"
)

// Reasons carried by DeleteBlobMessage.
const (
	BlobDeleteReasonMediaDeleted = "media_deleted"
	BlobDeleteReasonUploadFailed = "upload_failed"
)

// DeleteBlobMessage asks the consumer to remove one object from storage.
type DeleteBlobMessage struct {
	MediaID   string `json:"media_id"`
	FilePath  string `json:"file_path"`
	Reason    string `json:"reason"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher is the subset of *amqp.Channel used to publish messages.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type MediaService struct {
	channel Publisher
}

func InitMediaService(channel *amqp.Channel) *MediaService {
	service := &MediaService{
		channel: channel,
	}

	// Declare exchange
	err := channel.ExchangeDeclare(
		MediaExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Media exchange: " + err.Error())
	}

	err = channel.ExchangeDeclare(
		MediaDeadLetterExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Media dead letter exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		MediaBlobDeleteDeadQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Media blob delete dead letter queue: " + err.Error())
	}

	err = channel.QueueBind(
		MediaBlobDeleteDeadQueue,
		MediaBlobDeleteDeadRoutingKey,
		MediaDeadLetterExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Media blob delete dead letter queue: " + err.Error())
	}

	// Declare blob delete queue
	_, err = channel.QueueDeclare(
		MediaBlobDeleteQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		BlobDeleteQueueArgs(),
	)
	if err != nil {
		panic("Failed to declare Media blob delete queue: " + err.Error())
	}

	err = channel.QueueBind(
		MediaBlobDeleteQueue,
		MediaBlobDeleteRoutingKey,
		MediaExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Media blob delete queue: " + err.Error())
	}

	return service
}

// BlobDeleteQueueArgs routes messages rejected without requeue to the dead
// letter queue.
func BlobDeleteQueueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    MediaDeadLetterExchange,
		"x-dead-letter-routing-key": MediaBlobDeleteDeadRoutingKey,
	}
}

func NewMediaService(channel Publisher) *MediaService {
	return &MediaService{channel: channel}
}

// PublishBlobDelete schedules removal of an object from storage.
func (s *MediaService) PublishBlobDelete(ctx context.Context, msg DeleteBlobMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MediaExchange,
		MediaBlobDeleteRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
