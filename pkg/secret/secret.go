// Package secret 提供只写一次、默认脱敏的敏感字符串容器。
//
// Go 没有确定性的析构，容器不会依赖 finalizer 清理内存：
// 持有者在不再需要 secret 的每条代码路径上都必须显式调用 [String.Clear]。
//
// 容器在 fmt、slog、encoding/json 中都只会输出 [Placeholder]。
package secret

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Placeholder 是所有渲染路径使用的脱敏文本。
const Placeholder = "[REDACTED]"

var (
	// ErrAlreadySet 表示对已写入的容器再次写入。
	ErrAlreadySet = errors.New("secret: value already set")
	// ErrCleared 表示容器已被清理。
	ErrCleared = errors.New("secret: value cleared")
)

// String 敏感字符串容器。零值为空容器，可通过 [String.Set] 写入一次。
//
// 复制 String 会共享底层内存，Clear 对所有副本生效。
type String struct {
	state *state
}

type state struct {
	mu      sync.Mutex
	buf     []byte
	set     bool
	cleared bool
}

// New 创建已写入 s 的容器。
func New(s string) *String {
	out := &String{}
	_ = out.Set(s)

	return out
}

func (s *String) ensure() *state {
	if s.state == nil {
		s.state = &state{}
	}

	return s.state
}

// Set 写入内容，只能成功一次。
func (s *String) Set(v string) error {
	st := s.ensure()
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cleared {
		return ErrCleared
	}
	if st.set {
		return ErrAlreadySet
	}
	st.buf = []byte(v)
	st.set = true

	return nil
}

// IsSet 报告是否已写入且未被清理。
func (s *String) IsSet() bool {
	if s == nil || s.state == nil {
		return false
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	return s.state.set && !s.state.cleared
}

// Expose 返回明文副本。
//
// 返回的 string 无法被清零，调用方应尽量缩短其生命周期。
func (s *String) Expose() string {
	if s == nil || s.state == nil {
		return ""
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	return string(s.state.buf)
}

// Use 在回调内借出底层字节，避免产生额外副本；回调返回后不得继续持有 b。
func (s *String) Use(fn func(b []byte) error) error {
	if s == nil || s.state == nil {
		return fn(nil)
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if s.state.cleared {
		return ErrCleared
	}

	return fn(s.state.buf)
}

// Len 返回明文长度。
func (s *String) Len() int {
	if s == nil || s.state == nil {
		return 0
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	return len(s.state.buf)
}

// Clear 将底层内存逐字节清零并释放，重复调用是安全的。
func (s *String) Clear() {
	if s == nil || s.state == nil {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	clear(s.state.buf)
	s.state.buf = nil
	s.state.cleared = true
}

// String 实现 fmt.Stringer。
func (s *String) String() string { return Placeholder }

// GoString 实现 fmt.GoStringer，覆盖 %#v。
func (s *String) GoString() string { return "secret.String(" + Placeholder + ")" }

// Format 实现 fmt.Formatter，所有动词都输出占位符。
func (s *String) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = fmt.Fprint(f, s.GoString())
		return
	}
	_, _ = fmt.Fprint(f, Placeholder)
}

// LogValue 实现 slog.LogValuer。
func (s *String) LogValue() slog.Value { return slog.StringValue(Placeholder) }

// MarshalJSON 始终输出占位符。
func (s *String) MarshalJSON() ([]byte, error) {
	return []byte(`"` + Placeholder + `"`), nil
}

// MarshalText 始终输出占位符。
func (s *String) MarshalText() ([]byte, error) {
	return []byte(Placeholder), nil
}
