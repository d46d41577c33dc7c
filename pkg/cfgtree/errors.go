package cfgtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// ErrorKind 错误类别。
type ErrorKind uint8

const (
	// KindMountConflict 两个配置或参数挂载到互相冲突的路径。
	KindMountConflict ErrorKind = iota + 1
	// KindMissingField 必填参数或标签缺失。
	KindMissingField
	// KindInvalidType 值的形状不被任何可接受的形状匹配。
	KindInvalidType
	// KindDeserialization 形状正确但内容无法解析。
	KindDeserialization
	// KindUnknownVariant 标签值不匹配任何变体。
	KindUnknownVariant
	// KindValidation 校验规则未通过。
	KindValidation
)

// 每个类别对应一个哨兵错误，可配合 errors.Is 使用。
var (
	ErrMountConflict   = errors.New("mount conflict")
	ErrMissingField    = errors.New("missing field")
	ErrInvalidType     = errors.New("invalid type")
	ErrDeserialization = errors.New("deserialization error")
	ErrUnknownVariant  = errors.New("unknown variant")
	ErrValidation      = errors.New("validation error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMountConflict:
		return ErrMountConflict
	case KindMissingField:
		return ErrMissingField
	case KindInvalidType:
		return ErrInvalidType
	case KindDeserialization:
		return ErrDeserialization
	case KindUnknownVariant:
		return ErrUnknownVariant
	case KindValidation:
		return ErrValidation
	default:
		return nil
	}
}

func (k ErrorKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}

	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error 一条带定位信息的错误。
type Error struct {
	Kind ErrorKind
	// Path 出错位置的规范路径（参数路径或配置路径）。
	Path string
	// Config 所属配置类型名。
	Config string
	// Param 参数名，配置级错误为空。
	Param string
	// Origin 出错值的来源，值缺失时为 nil。
	Origin *value.Origin
	// Conditions 到达该参数所需的标签条件，外层在前。
	Conditions []string
	// Rule 校验失败时的规则描述。
	Rule string
	// Message 人类可读的错误描述。
	Message string
	// Err 底层错误。
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	switch {
	case e.Kind == KindMountConflict:
		sb.WriteString("mount conflict")
	case e.Param != "":
		fmt.Fprintf(&sb, "error parsing param `%s` in `%s` at `%s`", e.Param, e.Config, e.Path)
	default:
		fmt.Fprintf(&sb, "error parsing config `%s` at `%s`", e.Config, e.Path)
	}
	if e.Origin != nil {
		fmt.Fprintf(&sb, " [origin: %s]", e.Origin)
	}
	if len(e.Conditions) > 0 {
		fmt.Fprintf(&sb, " (when %s)", strings.Join(e.Conditions, " && "))
	}
	sb.WriteString(": ")
	sb.WriteString(e.message())

	return sb.String()
}

func (e *Error) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrMissingField) 等判断生效。
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Errors 一次解析收集到的全部错误，顺序与配置遍历顺序一致。
type Errors []*Error

func (es Errors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}

	lines := make([]string, 0, len(es)+1)
	lines = append(lines, fmt.Sprintf("%d errors:", len(es)))
	for _, e := range es {
		lines = append(lines, "  - "+e.Error())
	}

	return strings.Join(lines, "\n")
}

func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}

	return out
}

// ByPath 返回 Path 等于 path 的错误。
func (es Errors) ByPath(path string) Errors {
	var out Errors
	for _, e := range es {
		if e.Path == path {
			out = append(out, e)
		}
	}

	return out
}

// ByKind 返回指定类别的错误。
func (es Errors) ByKind(kind ErrorKind) Errors {
	var out Errors
	for _, e := range es {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}

// Paths 返回去重后的出错路径，保持原有顺序。
func (es Errors) Paths() []string {
	var out []string
	for _, e := range es {
		out = appendUnique(out, e.Path)
	}

	return out
}

// AsErrors 从 err 中提取 [Errors]，单个 [*Error] 也会被包装。
func AsErrors(err error) (Errors, bool) {
	var es Errors
	if errors.As(err, &es) {
		return es, true
	}
	var single *Error
	if errors.As(err, &single) {
		return Errors{single}, true
	}

	return nil, false
}

func mountConflict(format string, args ...any) *Error {
	return &Error{Kind: KindMountConflict, Message: fmt.Sprintf(format, args...)}
}

// TypeError 表示原始值形状不被接受，反序列化器返回它时错误类别为 [KindInvalidType]。
type TypeError struct {
	Expected BasicTypes
	// Shapes 额外描述可接受的复合形状，例如 "array of {key, value} objects"。
	Shapes []string
	Got    value.Kind
}

func (e *TypeError) Error() string {
	expected := e.Expected.String()
	if len(e.Shapes) > 0 {
		expected = strings.Join(e.Shapes, " or ")
	}

	return fmt.Sprintf("invalid type: %s, expected %s", e.Got, expected)
}

func typeError(expected BasicTypes, got value.Value, shapes ...string) *TypeError {
	return &TypeError{Expected: expected, Shapes: shapes, Got: got.Kind()}
}

// classify 根据反序列化器返回的错误决定类别。
func classify(err error) ErrorKind {
	var te *TypeError
	if errors.As(err, &te) {
		return KindInvalidType
	}

	return KindDeserialization
}
