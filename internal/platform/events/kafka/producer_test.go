package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Publish(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewWithSyncProducer(mockProducer, nil)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		assert.Equal(t, "orders.order.placed", env.Type)
		assert.Equal(t, "PF-0A1B2C3D", env.Key)
		return nil
	})

	err := producer.Publish(context.Background(), "storefront.orders", "orders.order.placed", "PF-0A1B2C3D", map[string]any{"total": "120.00"})
	require.NoError(t, err)
	require.NoError(t, producer.Close())
}

func TestProducer_PublishError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewWithSyncProducer(mockProducer, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.Publish(context.Background(), "storefront.orders", "orders.order.placed", "PF-1", nil)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, ParseBrokers(" kafka-1:9092, ,kafka-2:9092 "))
	assert.Empty(t, ParseBrokers(""))

	_, err := NewProducer(nil, nil)
	require.Error(t, err)
}
