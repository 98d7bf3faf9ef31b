package tcpserver

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrConnClosed 连接已关闭
var ErrConnClosed = errors.New("connection closed")

// ConnContext 适配器连接：读循环同步回调，写入经队列异步发送
type ConnContext struct {
	s      *Server
	c      net.Conn
	id     uint64
	log    *zap.Logger
	writeC chan []byte
	onRead func([]byte)

	mu     sync.Mutex // 保护 closed 与 writeC 的关闭
	closed bool
	doneC  chan struct{}

	bytesIn  atomic.Int64
	bytesOut atomic.Int64
}

func newConnContext(s *Server, c net.Conn, id uint64) *ConnContext {
	return &ConnContext{
		s:      s,
		c:      c,
		id:     id,
		log:    s.log.With(zap.Uint64("conn_id", id), zap.String("remote", c.RemoteAddr().String())),
		writeC: make(chan []byte, 128),
		doneC:  make(chan struct{}),
	}
}

// ID 连接ID（进程内递增）
func (cc *ConnContext) ID() uint64 { return cc.id }

// RemoteAddr 远端地址
func (cc *ConnContext) RemoteAddr() net.Addr { return cc.c.RemoteAddr() }

// Logger 带连接字段的日志器
func (cc *ConnContext) Logger() *zap.Logger { return cc.log }

// SetOnRead 安装读取回调；必须在连接开始运行前调用
func (cc *ConnContext) SetOnRead(h func([]byte)) { cc.onRead = h }

// Write 入写队列；队列满时在写超时内等待
func (cc *ConnContext) Write(b []byte) error {
	dup := make([]byte, len(b))
	copy(dup, b)
	to := cc.s.cfg.WriteTimeout
	if to <= 0 {
		to = 5 * time.Second
	}
	timer := time.NewTimer(to)
	defer timer.Stop()

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.closed {
		return ErrConnClosed
	}
	select {
	case cc.writeC <- dup:
		return nil
	case <-timer.C:
		return errors.New("write queue timeout")
	}
}

// Close 关闭连接；可重复调用
func (cc *ConnContext) Close() error {
	cc.mu.Lock()
	if cc.closed {
		cc.mu.Unlock()
		return nil
	}
	cc.closed = true
	close(cc.writeC)
	cc.mu.Unlock()
	return cc.c.Close()
}

// Done 连接结束通知
func (cc *ConnContext) Done() <-chan struct{} { return cc.doneC }

// Stats 收发字节数
func (cc *ConnContext) Stats() (in, out int64) { return cc.bytesIn.Load(), cc.bytesOut.Load() }

// run 读写循环，阻塞直至连接结束
func (cc *ConnContext) run() {
	defer close(cc.doneC)
	defer cc.Close()

	doneW := make(chan struct{})
	go func() {
		defer close(doneW)
		for msg := range cc.writeC {
			if cc.s.cfg.WriteTimeout > 0 {
				_ = cc.c.SetWriteDeadline(time.Now().Add(cc.s.cfg.WriteTimeout))
			}
			n, err := cc.c.Write(msg)
			cc.bytesOut.Add(int64(n))
			if err != nil {
				cc.log.Warn("write failed", zap.Error(err))
				_ = cc.c.Close()
				// 排空队列，让 Close 之后的写入方尽快返回
				for range cc.writeC {
				}
				return
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		if cc.s.cfg.ReadTimeout > 0 {
			_ = cc.c.SetReadDeadline(time.Now().Add(cc.s.cfg.ReadTimeout))
		}
		n, err := cc.c.Read(buf)
		if n > 0 {
			cc.bytesIn.Add(int64(n))
			if cc.s.onRecvBytes != nil {
				cc.s.onRecvBytes(n)
			}
			if cc.onRead != nil {
				cc.onRead(buf[:n])
			}
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// 空闲连接：刷新 deadline 继续等
				continue
			}
			cc.log.Debug("read loop ended", zap.Error(err))
			break
		}
	}
	_ = cc.Close()
	<-doneW
}
