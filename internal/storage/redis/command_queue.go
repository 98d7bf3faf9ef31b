package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taoyao-code/cec-server/internal/coremodel"
)

// CommandQueue 未处理命令的直通队列（List）
// 新记录 LPUSH 到队头，LTRIM 保持上限；API 通过 LRANGE 读取最新记录
type CommandQueue struct {
	client *Client
	key    string
	maxLen int64
}

// NewCommandQueue 创建队列；maxLen<=0 表示不裁剪
func NewCommandQueue(client *Client, key string, maxLen int64) *CommandQueue {
	if key == "" {
		key = "cec:unhandled"
	}
	return &CommandQueue{client: client, key: key, maxLen: maxLen}
}

// Key 队列 key
func (q *CommandQueue) Key() string { return q.key }

// Push 入队
func (q *CommandQueue) Push(ctx context.Context, c *coremodel.UnhandledCommand) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.key, data)
	if q.maxLen > 0 {
		pipe.LTrim(ctx, q.key, 0, q.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push command: %w", err)
	}
	return nil
}

// Recent 最新的 n 条（不出队），新记录在前；n<=0 返回全部
func (q *CommandQueue) Recent(ctx context.Context, n int) ([]coremodel.UnhandledCommand, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	items, err := q.client.LRange(ctx, q.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("range commands: %w", err)
	}
	out := make([]coremodel.UnhandledCommand, 0, len(items))
	for _, s := range items {
		var c coremodel.UnhandledCommand
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			// 跳过损坏的记录
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Len 队列长度
func (q *CommandQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
