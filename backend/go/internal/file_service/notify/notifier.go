package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"pdf-collab/backend/go/internal/models"
	"pdf-collab/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel 是文件变更通知默认使用的 Pub/Sub 频道。
const DefaultChannel = "files:changes"

// Notifier 通过 Redis Pub/Sub 在各在线客户端之间广播文件表的变更提示。
// 提示不携带可直接消费的行数据, 订阅方收到后应当整体重新拉取列表。
type Notifier struct {
	rdb     *redis.Client
	channel string
	log     *logger.Logger
}

// NewNotifier 创建一个新的 Notifier 实例。channel 为空时使用默认频道。
func NewNotifier(rdb *redis.Client, channel string, log *logger.Logger) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{rdb: rdb, channel: channel, log: log}
}

// Publish 广播一条变更提示。通知失败不应阻断主流程,
// 调用方通常只记录日志。
func (n *Notifier) Publish(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化变更通知失败: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("发布变更通知失败: %w", err)
	}
	return nil
}

// Subscribe 订阅变更频道, 返回一个事件通道。
// 整个页面会话只建立一次订阅; ctx 取消时订阅关闭、通道随之关闭。
func (n *Notifier) Subscribe(ctx context.Context) <-chan models.ChangeEvent {
	pubsub := n.rdb.Subscribe(ctx, n.channel)
	events := make(chan models.ChangeEvent)

	go func() {
		defer close(events)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					if n.log != nil {
						n.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("丢弃无法解析的变更通知")
					}
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
