package outbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

type captureSink struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (s *captureSink) Write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, string(b))
	return nil
}

func (s *captureSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		name     string
		op       cec.Opcode
		expected int
	}{
		{"feature abort=高优先级", cec.OpFeatureAbort, PriorityHigh},
		{"active source=高优先级", cec.OpActiveSource, PriorityHigh},
		{"report physical address=高优先级", cec.OpReportPhysicalAddress, PriorityHigh},
		{"osd name=普通优先级", cec.OpSetOSDName, PriorityNormal},
		{"power status=普通优先级", cec.OpReportPowerStatus, PriorityNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PriorityFor(tt.op))
		})
	}
}

func TestQueue_HighBeforeNormal(t *testing.T) {
	q := NewQueue(cfgpkg.OutboundConfig{RatePerSec: 1000, Burst: 10, QueueSize: 8}, nil, nil)
	sink := &captureSink{}
	q.SetSink(sink)

	require.NoError(t, q.Transmit(cec.NewFrame(4, 0, cec.OpSetOSDName, 'A')))
	require.NoError(t, q.Transmit(cec.NewFrame(4, 15, cec.OpActiveSource, 0x10, 0x00)))
	assert.Equal(t, 2, q.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	assert.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"4F:82:10:00\n", "40:47:41\n"}, sink.snapshot())
}

func TestQueue_Full(t *testing.T) {
	reg := metrics.NewRegistry()
	q := NewQueue(cfgpkg.OutboundConfig{QueueSize: 1}, metrics.NewAppMetrics(reg), nil)
	require.NoError(t, q.Transmit(cec.NewFrame(4, 0, cec.OpCECVersion, 0x04)))
	assert.ErrorIs(t, q.Transmit(cec.NewFrame(4, 0, cec.OpCECVersion, 0x04)), ErrQueueFull)
}

func TestQueue_NoSinkDrops(t *testing.T) {
	q := NewQueue(cfgpkg.OutboundConfig{RatePerSec: 1000, Burst: 10}, nil, nil)
	require.NoError(t, q.Transmit(cec.NewFrame(4, 0, cec.OpCECVersion, 0x04)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, q.HasSink())
}

func TestQueue_ClearSinkOnlyCurrent(t *testing.T) {
	q := NewQueue(cfgpkg.OutboundConfig{}, nil, nil)
	first, second := &captureSink{}, &captureSink{}
	q.SetSink(first)
	q.SetSink(second)
	q.ClearSink(first)
	assert.True(t, q.HasSink())
	q.ClearSink(second)
	assert.False(t, q.HasSink())
}

func TestQueue_WriteErrorDoesNotStop(t *testing.T) {
	q := NewQueue(cfgpkg.OutboundConfig{RatePerSec: 1000, Burst: 10}, nil, nil)
	sink := &captureSink{err: errors.New("closed")}
	q.SetSink(sink)
	require.NoError(t, q.Transmit(cec.NewFrame(4, 0, cec.OpCECVersion, 0x04)))
	require.NoError(t, q.Transmit(cec.NewFrame(4, 0, cec.OpCECVersion, 0x05)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
}
