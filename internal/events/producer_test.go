package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKafkaProducer_PublishWrapsPayloadInCloudEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "user-42", string(key))
		assert.Equal(t, "auth-events", msg.Topic)

		value, err := msg.Value.Encode()
		require.NoError(t, err)

		var event CloudEvent
		require.NoError(t, json.Unmarshal(value, &event))
		assert.Equal(t, "1.0", event.SpecVersion)
		assert.Equal(t, string(EventLoginSucceeded), event.Type)
		assert.Equal(t, "/courier-back", event.Source)
		assert.Equal(t, "user-42", event.Subject)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "application/json", event.DataContentType)
		assert.NotNil(t, event.Data)
		return nil
	})

	producer := NewKafkaProducerWith(mockProducer, "auth-events", "/courier-back", zap.NewNop())
	err := producer.Publish(context.Background(), EventLoginSucceeded, "user-42", LoginSucceededPayload{
		UserID:    "user-42",
		DeviceID:  "device-1",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, producer.Close())
}

func TestKafkaProducer_PublishPropagatesBrokerErrors(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewKafkaProducerWith(mockProducer, "auth-events", "/courier-back", zap.NewNop())
	err := producer.Publish(context.Background(), EventLogout, "user-42", nil)
	assert.Error(t, err)
	require.NoError(t, producer.Close())
}
