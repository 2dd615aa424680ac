package models

import "time"

// 文件变更动作。变更通知和事件流共用这组常量。
const (
	ActionInsert = "INSERT"
	ActionDelete = "DELETE"
)

// ChangeEvent 是通过 Redis Pub/Sub 广播给在线客户端的变更提示。
// 它刻意不携带完整的行数据: 订阅方收到后应当重新拉取列表,
// 而不是基于事件本身增量修改本地状态。
type ChangeEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	Path   string `json:"path,omitempty"`
}

// FileEvent 是写入 Kafka 事件流的文件生命周期事件, 供审计或统计消费。
type FileEvent struct {
	Action    string    `json:"action"` // ActionInsert / ActionDelete
	Path      string    `json:"path"`
	Filename  string    `json:"filename,omitempty"`
	Folder    string    `json:"folder,omitempty"`
	Size      int64     `json:"size,omitempty"`
	Owner     *string   `json:"owner,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
