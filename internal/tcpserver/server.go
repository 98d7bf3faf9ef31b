package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
)

// ConnHandler 新连接回调：在读循环启动前安装 OnRead 等钩子
type ConnHandler func(cc *ConnContext)

// Server 适配器网桥的 TCP 接入
type Server struct {
	cfg  cfgpkg.TCPConfig
	log  *zap.Logger
	gate *Gate

	mu      sync.Mutex
	ln      net.Listener
	stopC   chan struct{}
	stopped bool
	conns   map[uint64]*ConnContext

	wg         sync.WaitGroup
	nextConnID atomic.Uint64
	handler    ConnHandler

	// 可选指标回调
	onAccept    func()
	onReject    func(reason string)
	onRecvBytes func(n int)
}

// New 创建 TCP 服务
func New(cfg cfgpkg.TCPConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:   cfg,
		log:   log.With(zap.String("component", "tcpserver")),
		gate:  NewGate(cfg.MaxConnections, cfg.AcquireTimeout, cfg.AcceptRate, cfg.AcceptBurst),
		stopC: make(chan struct{}),
		conns: make(map[uint64]*ConnContext),
	}
}

// SetConnHandler 设置连接回调
func (s *Server) SetConnHandler(h ConnHandler) { s.handler = h }

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept func(), onReject func(string), onRecvBytes func(int)) {
	s.onAccept, s.onReject, s.onRecvBytes = onAccept, onReject, onRecvBytes
}

// Start 监听并在后台接受连接
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	s.log.Info("tcp server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr 实际监听地址（Start 之后有效）
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopC:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", zap.Error(err))
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if err := s.gate.Admit(context.Background()); err != nil {
			reason := "full"
			if errors.Is(err, ErrAcceptRateLimited) {
				reason = "rate"
			}
			if s.onReject != nil {
				s.onReject(reason)
			}
			s.log.Warn("connection rejected",
				zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			_ = conn.Close()
			continue
		}
		if s.onAccept != nil {
			s.onAccept()
		}

		cc := newConnContext(s, conn, s.nextConnID.Add(1))
		if !s.track(cc) {
			s.gate.Release()
			_ = conn.Close()
			return
		}
		if s.handler != nil {
			s.handler(cc)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.gate.Release()
			defer s.untrack(cc)
			cc.log.Info("adapter connected")
			cc.run()
			cc.log.Info("adapter disconnected")
		}()
	}
}

func (s *Server) track(cc *ConnContext) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[cc.id] = cc
	return true
}

func (s *Server) untrack(cc *ConnContext) {
	s.mu.Lock()
	delete(s.conns, cc.id)
	s.mu.Unlock()
}

// ActiveConnections 当前连接数
func (s *Server) ActiveConnections() int { return s.gate.Active() }

// MaxConnections 最大连接数
func (s *Server) MaxConnections() int { return s.gate.Max() }

// GateStats 接入控制统计
func (s *Server) GateStats() GateStats { return s.gate.Stats() }

// Shutdown 停止监听，关闭所有连接并等待退出
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopC)
	ln := s.ln
	conns := make([]*ConnContext, 0, len(s.conns))
	for _, cc := range s.conns {
		conns = append(conns, cc)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, cc := range conns {
		_ = cc.Close()
	}

	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
