// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// TranscriptArchiveTask 在一次面试得出评估结果后发出，由归档消费者写入 MinIO 和 Elasticsearch。
type TranscriptArchiveTask struct {
	SessionID  string `json:"session_id"`
	UserID     uint   `json:"user_id"`
	SubtopicID uint   `json:"subtopic_id"`
	Language   string `json:"language"`
	Score      int    `json:"score"`
}

// Key 是任务的幂等键，用于重试计数。
func (t TranscriptArchiveTask) Key() string {
	return t.SessionID
}
