// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"interview-coach-go/internal/config"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/tasks"
)

// maxAttempts 是单个任务失败后重试的上限，达到后提交 offset 放弃该任务。
const maxAttempts = 3

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.TranscriptArchiveTask) error
}

// AttemptCounter 记录任务的失败次数。
type AttemptCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// Producer 把归档任务写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

func brokers(cfg config.KafkaConfig) []string {
	return strings.Split(cfg.Brokers, ",")
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers(cfg)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// ProduceArchiveTask 发送一个归档任务到 Kafka，会话 ID 作为消息 key 保证同一会话落在同一分区。
func (p *Producer) ProduceArchiveTask(ctx context.Context, task tasks.TranscriptArchiveTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.SessionID),
		Value: taskBytes,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理归档任务，ctx 取消时退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, counter AttemptCounter) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)
		if handleMessage(ctx, m.Value, processor, counter) {
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// retryBackoff 是两次重试之间的基础等待时间，第 n 次失败后等待 n 倍。
var retryBackoff = 2 * time.Second

// handleMessage 处理一条消息并返回是否应提交 offset。
// FetchMessage 不会在同一会话内重投未提交的消息，所以失败的任务在进程内重试，
// 次数记录在计数器中，重启后继续累计；达到上限后提交 offset 放弃该任务。
// 只有 ctx 被取消时才返回 false，让重启后的消费者重新拉取。
func handleMessage(ctx context.Context, value []byte, processor TaskProcessor, counter AttemptCounter) bool {
	var task tasks.TranscriptArchiveTask
	if err := json.Unmarshal(value, &task); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(value))
		return true
	}

	log.Infof("开始处理归档任务: SessionID=%s", task.SessionID)
	attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.Key())
	var local int64
	for {
		err := processor.Process(ctx, task)
		if err == nil {
			log.Infof("归档任务处理成功: SessionID=%s", task.SessionID)
			_ = counter.Reset(ctx, attemptsKey)
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		local++
		attempts, incErr := counter.Incr(ctx, attemptsKey)
		if incErr != nil {
			// Redis 不可用时退回进程内计数
			log.Warnf("记录归档任务失败次数失败: %v", incErr)
			attempts = local
		}
		log.Errorf("处理归档任务失败(第 %d 次): SessionID=%s, Error: %v", attempts, task.SessionID, err)
		if attempts >= maxAttempts {
			log.Errorf("归档任务多次失败(>=%d)，提交 offset 终止重试: SessionID=%s", maxAttempts, task.SessionID)
			_ = counter.Reset(ctx, attemptsKey)
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(attempts) * retryBackoff):
		}
	}
}

// redisCounter 是基于 Redis INCR 的 AttemptCounter，计数保留 24 小时。
type redisCounter struct {
	rdb *redis.Client
}

// NewRedisAttemptCounter 创建基于 Redis 的失败计数器。
func NewRedisAttemptCounter(rdb *redis.Client) AttemptCounter {
	return &redisCounter{rdb: rdb}
}

func (c *redisCounter) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.rdb.Expire(ctx, key, 24*time.Hour).Err()
	return n, nil
}

func (c *redisCounter) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
