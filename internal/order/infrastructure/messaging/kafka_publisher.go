// Package messaging 订单事件的 Kafka 发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/tradingvenue/internal/order/application"
	"github.com/wyfcoding/tradingvenue/pkg/mq"
)

// KafkaPublisher 基于 Kafka 的订单事件发布器
type KafkaPublisher struct {
	producer *mq.Producer
	topic    string
}

// NewKafkaPublisher 创建 Kafka 订单事件发布器
func NewKafkaPublisher(producer *mq.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
	}
}

// PublishOrderEvent 发布订单事件，按订单 ID 作为分区键保证同一订单事件有序
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event *application.OrderEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.OrderID, event)
}
