package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/cec-server/internal/device"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

type nopTx struct{}

func (nopTx) Transmit(cec.Frame) error { return nil }

type seen struct {
	mu     sync.Mutex
	events []string
}

func (s *seen) observe(dev cec.LogicalAddress, f cec.Frame, class cec.Class, handled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, dev.String()+" "+class.String()+" "+f.String())
}

func (s *seen) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newDevices(las ...cec.LogicalAddress) ([]cec.BusDevice, []*device.Device) {
	proc := device.NewProcessor(nopTx{}, nil, nil, nil)
	var bd []cec.BusDevice
	var ds []*device.Device
	for _, la := range las {
		d := device.New(device.Options{LogicalAddress: la, PhysicalAddress: 0x1000}, proc, nil)
		bd = append(bd, d)
		ds = append(ds, d)
	}
	return bd, ds
}

func TestBus_InOrderPerDevice(t *testing.T) {
	bd, ds := newDevices(cec.LogicalAddressPlayback1, cec.LogicalAddressAudioSystem)
	b := New(bd, 128, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	// 每个 routing-change 的旧地址依赖上一个的结果，乱序会中断链条
	for i := 0; i < 50; i++ {
		oldAddr := cec.PhysicalAddress(0x1000 + i).Bytes()
		newAddr := cec.PhysicalAddress(0x1000 + i + 1).Bytes()
		b.Deliver(cec.NewFrame(0, 15, cec.OpRoutingChange, oldAddr[0], oldAddr[1], newAddr[0], newAddr[1]))
	}

	for _, d := range ds {
		d := d
		assert.Eventually(t, func() bool {
			return d.PhysicalAddress() == 0x1032
		}, time.Second, 5*time.Millisecond)
	}
	delivered, dropped := b.Stats()
	assert.Equal(t, uint64(100), delivered)
	assert.Zero(t, dropped)
}

func TestBus_ObserverClassifies(t *testing.T) {
	bd, _ := newDevices(cec.LogicalAddressPlayback1, cec.LogicalAddressAudioSystem)
	s := &seen{}
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	b := New(bd, 8, nil, WithObserver(s.observe), WithMetrics(appm))
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	b.Deliver(cec.NewFrame(0, 4, cec.OpGiveOSDName))

	require.Eventually(t, func() bool { return s.len() == 2 }, time.Second, 5*time.Millisecond)
	s.mu.Lock()
	assert.ElementsMatch(t, []string{"Playback 1 mine 04:46", "Audio other 04:46"}, s.events)
	s.mu.Unlock()

	assert.Equal(t, 1.0, testutil.ToFloat64(appm.DispatchTotal.WithLabelValues("4", "mine", "46", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(appm.DispatchTotal.WithLabelValues("5", "other", "46", "false")))
}

func TestBus_FullInboxDrops(t *testing.T) {
	bd, _ := newDevices(cec.LogicalAddressPlayback1)
	appm := metrics.NewAppMetrics(metrics.NewRegistry())
	b := New(bd, 1, nil, WithMetrics(appm))

	// 未启动，收件箱只容纳一帧
	b.Deliver(cec.NewFrame(0, 4, cec.OpGiveOSDName))
	b.Deliver(cec.NewFrame(0, 4, cec.OpGiveOSDName))
	b.Deliver(cec.NewFrame(0, 4, cec.OpGiveOSDName))

	delivered, dropped := b.Stats()
	assert.Equal(t, uint64(1), delivered)
	assert.Equal(t, uint64(2), dropped)
	assert.Equal(t, 2.0, testutil.ToFloat64(appm.InboxDropped.WithLabelValues("4")))
}

func TestBus_StartStop(t *testing.T) {
	bd, _ := newDevices(cec.LogicalAddressTV)
	b := New(bd, 0, nil)
	assert.False(t, b.Running())
	assert.Equal(t, 1, b.Devices())

	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.Running())
	assert.ErrorIs(t, b.Start(context.Background()), ErrAlreadyStarted)

	b.Stop()
	assert.False(t, b.Running())
	b.Stop()
}

type recordingTx struct {
	mu     sync.Mutex
	frames []string
}

func (r *recordingTx) Transmit(f cec.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f.String())
	return nil
}

func (r *recordingTx) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

func TestBus_BroadcastReachesEveryDevice(t *testing.T) {
	tx := &recordingTx{}
	proc := device.NewProcessor(tx, nil, nil, nil)
	bd := []cec.BusDevice{
		device.New(device.Options{LogicalAddress: cec.LogicalAddressPlayback1, PhysicalAddress: 0x1000}, proc, nil),
		device.New(device.Options{LogicalAddress: cec.LogicalAddressPlayback2, PhysicalAddress: 0x2000}, proc, nil),
	}
	b := New(bd, 8, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	// 每个本机设备各自应答
	b.Deliver(cec.NewFrame(0, 15, cec.OpRequestActiveSource))
	require.Eventually(t, func() bool { return len(tx.sent()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"4F:82:10:00", "8F:82:20:00"}, tx.sent())

	// 未处理的广播按设备各记一条
	b.Deliver(cec.NewFrame(0, 15, cec.OpStandby))
	ctx := context.Background()
	require.Eventually(t, func() bool {
		n, _ := proc.Sink().Len(ctx)
		return n == 2
	}, time.Second, 5*time.Millisecond)
	recent, err := proc.Sink().Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	devices := []uint8{recent[0].Device, recent[1].Device}
	assert.ElementsMatch(t, []uint8{4, 8}, devices)
	assert.Equal(t, "0F:36", recent[0].Raw)
}
