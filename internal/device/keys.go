package device

import (
	"sync"
	"time"

	"github.com/taoyao-code/cec-server/internal/coremodel"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// KeyState 遥控按键状态；去抖与 UI 投递由上层负责
type KeyState struct {
	mu           sync.Mutex
	now          func() time.Time
	lastActivity time.Time
	current      cec.UserControlCode
	hasCurrent   bool
	presses      uint64
}

func newKeyState(now func() time.Time) *KeyState {
	return &KeyState{now: now}
}

// Activity 记录一次按键活动（按下或释放）
func (k *KeyState) Activity() {
	k.mu.Lock()
	k.lastActivity = k.now()
	k.mu.Unlock()
}

// Press 设置当前按下的键
func (k *KeyState) Press(code cec.UserControlCode) {
	k.mu.Lock()
	k.current = code
	k.hasCurrent = true
	k.presses++
	k.mu.Unlock()
}

// Current 当前按下的键
func (k *KeyState) Current() (cec.UserControlCode, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current, k.hasCurrent
}

// Snapshot 按键状态快照
func (k *KeyState) Snapshot() coremodel.KeySnapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := coremodel.KeySnapshot{LastActivity: k.lastActivity, Presses: k.presses}
	if k.hasCurrent {
		c := uint8(k.current)
		s.CurrentButton = &c
	}
	return s
}
