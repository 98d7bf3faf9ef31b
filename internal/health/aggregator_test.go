package health

import (
	"context"
	"testing"
	"time"
)

type staticChecker struct {
	name   string
	status Status
}

func (s *staticChecker) Name() string { return s.name }

func (s *staticChecker) Check(ctx context.Context) CheckResult {
	return CheckResult{Status: s.status}
}

// blockingChecker 阻塞直到 ctx 结束
type blockingChecker struct{ name string }

func (b *blockingChecker) Name() string { return b.name }

func (b *blockingChecker) Check(ctx context.Context) CheckResult {
	<-ctx.Done()
	return CheckResult{Status: StatusUnhealthy, Message: ctx.Err().Error()}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"无检查项", nil, StatusHealthy},
		{"全部健康", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"降级优先于健康", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"不健康优先于降级", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"未知状态按健康计", []Status{Status("unknown")}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(map[string]CheckResult, len(tt.statuses))
			for i, s := range tt.statuses {
				results[string(rune('a'+i))] = CheckResult{Status: s}
			}
			if got := Overall(results); got != tt.want {
				t.Errorf("期望%v，实际: %v", tt.want, got)
			}
		})
	}
}

func TestWorst(t *testing.T) {
	if worst(StatusUnhealthy, StatusDegraded) != StatusUnhealthy {
		t.Error("不健康不应被降级覆盖")
	}
	if worst(StatusHealthy, StatusDegraded) != StatusDegraded {
		t.Error("降级应覆盖健康")
	}
}

func TestAggregator_CheckTimeout(t *testing.T) {
	agg := NewAggregator(&blockingChecker{"bus"}, &staticChecker{"tcp", StatusHealthy})
	agg.timeout = 20 * time.Millisecond

	start := time.Now()
	results := agg.CheckAll(context.Background())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("检查应在超时后返回，耗时: %v", elapsed)
	}
	if results["bus"].Status != StatusUnhealthy {
		t.Errorf("超时的检查应为StatusUnhealthy，实际: %v", results["bus"].Status)
	}
	if results["tcp"].Status != StatusHealthy {
		t.Errorf("其他检查不受影响，实际: %v", results["tcp"].Status)
	}
	if agg.Ready(context.Background()) {
		t.Error("超时导致不健康时不应Ready")
	}
}

func TestAggregator_AddCheckerIgnoresNil(t *testing.T) {
	agg := NewAggregator(&staticChecker{"bus", StatusDegraded})
	agg.AddChecker(nil)
	agg.AddChecker(&staticChecker{"redis", StatusHealthy})

	r := agg.Report(context.Background())
	if len(r.Checks) != 2 {
		t.Fatalf("期望2个结果，实际: %d", len(r.Checks))
	}
	if r.Status != StatusDegraded {
		t.Errorf("期望StatusDegraded，实际: %v", r.Status)
	}
	if !agg.Ready(context.Background()) {
		t.Error("降级状态应该仍然Ready")
	}
	if r.Timestamp.IsZero() {
		t.Error("报告应包含时间戳")
	}
}
