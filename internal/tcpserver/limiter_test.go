package tcpserver

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	t.Run("连接数上限", func(t *testing.T) {
		g := NewGate(2, 50*time.Millisecond, 100, 100)
		ctx := context.Background()

		if err := g.Admit(ctx); err != nil {
			t.Fatalf("第1次接入失败: %v", err)
		}
		if err := g.Admit(ctx); err != nil {
			t.Fatalf("第2次接入失败: %v", err)
		}
		if err := g.Admit(ctx); !errors.Is(err, ErrTooManyConnections) {
			t.Fatalf("第3次应返回 ErrTooManyConnections，实际: %v", err)
		}

		g.Release()
		if err := g.Admit(ctx); err != nil {
			t.Fatalf("释放后接入失败: %v", err)
		}
		if g.Active() != 2 {
			t.Errorf("期望2个活跃连接，实际: %d", g.Active())
		}
	})

	t.Run("接入速率", func(t *testing.T) {
		g := NewGate(100, time.Second, 10, 3)
		for i := 0; i < 3; i++ {
			if err := g.Admit(context.Background()); err != nil {
				t.Fatalf("突发第%d个被拒绝: %v", i+1, err)
			}
		}
		if err := g.Admit(context.Background()); !errors.Is(err, ErrAcceptRateLimited) {
			t.Fatalf("第4个应被限速，实际: %v", err)
		}

		time.Sleep(150 * time.Millisecond)
		if err := g.Admit(context.Background()); err != nil {
			t.Fatalf("等待后的接入应成功: %v", err)
		}
	})

	t.Run("统计", func(t *testing.T) {
		g := NewGate(4, 10*time.Millisecond, 100, 100)
		for i := 0; i < 5; i++ {
			_ = g.Admit(context.Background())
		}
		s := g.Stats()
		if s.ActiveConnections != 4 || s.MaxConnections != 4 {
			t.Errorf("期望 4/4，实际: %d/%d", s.ActiveConnections, s.MaxConnections)
		}
		if s.Utilization != 1.0 {
			t.Errorf("期望利用率1.0，实际: %.2f", s.Utilization)
		}
		if s.RejectedTotal() != 1 || s.AdmittedTotal != 4 {
			t.Errorf("期望拒绝1次接入4次，实际: %d/%d", s.RejectedTotal(), s.AdmittedTotal)
		}
	})

	t.Run("多余的释放无副作用", func(t *testing.T) {
		g := NewGate(1, 0, 0, 0)
		g.Release()
		if g.Active() != 0 {
			t.Errorf("期望0，实际: %d", g.Active())
		}
	})
}
