package device

import (
	"context"
	"sync"

	"github.com/taoyao-code/cec-server/internal/coremodel"
)

// CommandSink 未处理命令的直通队列，供上层应用消费
type CommandSink interface {
	Push(ctx context.Context, c *coremodel.UnhandledCommand) error
	Recent(ctx context.Context, n int) ([]coremodel.UnhandledCommand, error)
	Len(ctx context.Context) (int64, error)
}

// MemorySink 进程内有界环形缓冲，Redis 未启用时使用
type MemorySink struct {
	mu   sync.Mutex
	buf  []coremodel.UnhandledCommand
	next int
	full bool
}

// NewMemorySink 创建容量为 size 的内存队列
func NewMemorySink(size int) *MemorySink {
	if size <= 0 {
		size = 256
	}
	return &MemorySink{buf: make([]coremodel.UnhandledCommand, size)}
}

// Push 写入；满时覆盖最旧记录
func (s *MemorySink) Push(_ context.Context, c *coremodel.UnhandledCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[s.next] = *c
	s.next = (s.next + 1) % len(s.buf)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Recent 最新的 n 条，新记录在前
func (s *MemorySink) Recent(_ context.Context, n int) ([]coremodel.UnhandledCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.size()
	if n <= 0 || n > size {
		n = size
	}
	out := make([]coremodel.UnhandledCommand, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.buf)) % len(s.buf)
		out = append(out, s.buf[idx])
	}
	return out, nil
}

// Len 当前记录数
func (s *MemorySink) Len(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.size()), nil
}

func (s *MemorySink) size() int {
	if s.full {
		return len(s.buf)
	}
	return s.next
}
