package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pdf-collab/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
)

const FileEventTopic = "file_events"

// EventPublisher 封装了向 Kafka 发送文件生命周期事件的逻辑。
// 每次成功的上传或删除都会产生一条事件, 供离线审计或统计消费。
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher 创建一个新的 EventPublisher 实例。
func NewEventPublisher(client *KafkaClient) *EventPublisher {
	// 为事件主题创建一个新的 writer 实例配置
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        FileEventTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &EventPublisher{writer: writer}
}

// PublishFileEvent 将 FileEvent 序列化为 JSON 并发送到 Kafka。
// 事件按存储路径分区, 同一文件的事件保持有序。
func (p *EventPublisher) PublishFileEvent(ctx context.Context, event *models.FileEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal file event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Path),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close 关闭底层的 writer 连接。
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
