package produce

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return nil
}

func TestPublishBlobDelete(t *testing.T) {
	pub := &recordingPublisher{}
	service := NewMediaService(pub)

	err := service.PublishBlobDelete(context.Background(), DeleteBlobMessage{
		MediaID:  "m1",
		FilePath: "media/m1.png",
		Reason:   BlobDeleteReasonMediaDeleted,
	})
	require.NoError(t, err)

	assert.Equal(t, MediaExchange, pub.exchange)
	assert.Equal(t, MediaBlobDeleteRoutingKey, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

	var decoded DeleteBlobMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &decoded))
	assert.Equal(t, "media/m1.png", decoded.FilePath)
	assert.NotZero(t, decoded.Timestamp)
}

func TestBlobDeleteQueueArgs(t *testing.T) {
	args := BlobDeleteQueueArgs()

	assert.Equal(t, MediaDeadLetterExchange, args["x-dead-letter-exchange"])
	assert.Equal(t, MediaBlobDeleteDeadRoutingKey, args["x-dead-letter-routing-key"])
	require.NoError(t, args.Validate())
}
