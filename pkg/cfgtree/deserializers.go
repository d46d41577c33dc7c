package cfgtree

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/secret"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// Deserializer 将原始值节点转换为类型化值。
//
// 返回 [*TypeError] 表示形状不匹配（[KindInvalidType]），其他错误视为内容错误（[KindDeserialization]）。
type Deserializer interface {
	Expecting() BasicTypes
	Deserialize(node value.Node) (any, error)
}

// Serializer 可选接口，将类型化值转换回原始值。
//
// 默认值来源与规范化输出依赖它；未实现时回退到 [value.FromAny]。
type Serializer interface {
	Serialize(v any) (value.Value, error)
}

func serialize(d Deserializer, v any) (value.Value, error) {
	if s, ok := d.(Serializer); ok {
		return s.Serialize(v)
	}
	node, err := value.FromAny(v, nil)
	if err != nil {
		return value.Value{}, err
	}

	return node.Value, nil
}

// scalarText 取出数字或字符串的文本，用于宽松的标量解析。
func scalarText(v value.Value) (string, bool) {
	if n, ok := v.AsNumber(); ok {
		return n.String(), true
	}
	if s, ok := v.AsString(); ok {
		return strings.TrimSpace(s), true
	}

	return "", false
}

func unexpected(v any, want string) error {
	return fmt.Errorf("unexpected value type %T, want %s", v, want)
}

// ═══════════════════════════════════════════════════════════════════════════════
// 标量
// ═══════════════════════════════════════════════════════════════════════════════

type boolDeserializer struct{}

// Bool 解析布尔值，也接受 "true"/"false"/"1"/"0" 等字符串。
func Bool() Deserializer { return boolDeserializer{} }

func (boolDeserializer) Expecting() BasicTypes { return TypeBool }

func (boolDeserializer) Deserialize(node value.Node) (any, error) {
	if b, ok := node.Value.AsBool(); ok {
		return b, nil
	}
	if s, ok := node.Value.AsString(); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return b, nil
	}

	return nil, typeError(TypeBool, node.Value)
}

func (boolDeserializer) Serialize(v any) (value.Value, error) {
	b, ok := v.(bool)
	if !ok {
		return value.Value{}, unexpected(v, "bool")
	}

	return value.Bool(b), nil
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type integerDeserializer[T integer] struct{}

// Integer 解析整数并检查 T 的取值范围。
func Integer[T integer]() Deserializer { return integerDeserializer[T]{} }

// Int 等价于 Integer[int]()。
func Int() Deserializer { return Integer[int]() }

func (integerDeserializer[T]) Expecting() BasicTypes { return TypeInteger }

func (integerDeserializer[T]) Deserialize(node value.Node) (any, error) {
	text, ok := scalarText(node.Value)
	if !ok {
		return nil, typeError(TypeInteger, node.Value)
	}

	return parseInteger[T](text)
}

func (integerDeserializer[T]) Serialize(v any) (value.Value, error) {
	n, ok := v.(T)
	if !ok {
		return value.Value{}, unexpected(v, reflect.TypeFor[T]().String())
	}
	if isSigned[T]() {
		return value.Int(int64(n)), nil
	}

	return value.Uint(uint64(n)), nil
}

func isSigned[T integer]() bool {
	var zero T

	return zero-1 < zero
}

func parseInteger[T integer](text string) (T, error) {
	bits := int(reflect.TypeFor[T]().Size()) * 8
	if isSigned[T]() {
		i, err := strconv.ParseInt(text, 10, bits)
		if err != nil {
			return 0, numberError("integer", text, err)
		}
		return T(i), nil
	}

	u, err := strconv.ParseUint(text, 10, bits)
	if err != nil {
		return 0, numberError("unsigned integer", text, err)
	}

	return T(u), nil
}

func numberError(kind, text string, err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		err = numErr.Err
	}

	return fmt.Errorf("invalid %s %q: %w", kind, text, err)
}

type floatDeserializer struct{}

// Float 解析 float64。
func Float() Deserializer { return floatDeserializer{} }

func (floatDeserializer) Expecting() BasicTypes { return TypeFloat | TypeInteger }

func (floatDeserializer) Deserialize(node value.Node) (any, error) {
	text, ok := scalarText(node.Value)
	if !ok {
		return nil, typeError(TypeFloat, node.Value)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, numberError("float", text, err)
	}

	return f, nil
}

func (floatDeserializer) Serialize(v any) (value.Value, error) {
	f, ok := v.(float64)
	if !ok {
		return value.Value{}, unexpected(v, "float64")
	}

	return value.Float(f), nil
}

type stringDeserializer struct{}

// String 解析字符串；数字与布尔值会按字面量转换。
func String() Deserializer { return stringDeserializer{} }

func (stringDeserializer) Expecting() BasicTypes { return TypeString }

func (stringDeserializer) Deserialize(node value.Node) (any, error) {
	switch node.Value.Kind() {
	case value.KindString:
		s, _ := node.Value.AsString()
		return s, nil
	case value.KindNumber:
		n, _ := node.Value.AsNumber()
		return n.String(), nil
	case value.KindBool:
		b, _ := node.Value.AsBool()
		return strconv.FormatBool(b), nil
	default:
		return nil, typeError(TypeString, node.Value)
	}
}

func (stringDeserializer) Serialize(v any) (value.Value, error) {
	s, ok := v.(string)
	if !ok {
		return value.Value{}, unexpected(v, "string")
	}

	return value.String(s), nil
}

type secretDeserializer struct{}

// Secret 解析为 *secret.String；值树中对应的字符串会被标记为 secret，所有调试输出都会脱敏。
func Secret() Deserializer { return secretDeserializer{} }

func (secretDeserializer) Expecting() BasicTypes { return TypeString }

func (secretDeserializer) IsSecret() bool { return true }

func (secretDeserializer) Deserialize(node value.Node) (any, error) {
	s, ok := node.Value.AsString()
	if !ok {
		return nil, typeError(TypeString, node.Value)
	}

	return secret.New(s), nil
}

func (secretDeserializer) Serialize(v any) (value.Value, error) {
	switch typed := v.(type) {
	case *secret.String:
		return value.String(typed.Expose()).AsSecret(), nil
	case string:
		return value.String(typed).AsSecret(), nil
	default:
		return value.Value{}, unexpected(v, "*secret.String")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// 带单位的值
// ═══════════════════════════════════════════════════════════════════════════════

var durationUnits = map[string]time.Duration{
	"ns": time.Nanosecond, "nanos": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
	"us": time.Microsecond, "micros": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ms": time.Millisecond, "millis": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
}

type durationDeserializer struct {
	unit time.Duration
}

// Duration 解析 time.Duration，接受 "1m30s" 或 "30 secs"、"5 minutes" 形式。
func Duration() Deserializer { return durationDeserializer{} }

// DurationIn 与 [Duration] 相同，额外接受以 unit 为单位的裸数字。
func DurationIn(unit time.Duration) Deserializer { return durationDeserializer{unit: unit} }

func (d durationDeserializer) Expecting() BasicTypes {
	if d.unit > 0 {
		return TypeString | TypeInteger
	}

	return TypeString
}

func (d durationDeserializer) Deserialize(node value.Node) (any, error) {
	switch node.Value.Kind() {
	case value.KindNumber:
		if d.unit == 0 {
			return nil, typeError(TypeString, node.Value)
		}
		n, _ := node.Value.AsNumber()
		return d.scale(n.String())
	case value.KindString:
		s, _ := node.Value.AsString()
		return d.parse(strings.TrimSpace(s))
	default:
		return nil, typeError(d.Expecting(), node.Value)
	}
}

func (d durationDeserializer) parse(s string) (time.Duration, error) {
	if parsed, err := time.ParseDuration(s); err == nil {
		return parsed, nil
	}

	fields := strings.Fields(s)
	switch {
	case len(fields) == 2:
		unit, ok := durationUnits[strings.ToLower(fields[1])]
		if !ok {
			return 0, fmt.Errorf("invalid duration %q: unknown unit %q", s, fields[1])
		}
		n, err := strconv.ParseUint(fields[0], 10, 63)
		if err != nil {
			return 0, numberError("duration", s, err)
		}
		return time.Duration(n) * unit, nil
	case len(fields) == 1 && d.unit > 0:
		return d.scale(fields[0])
	default:
		return 0, fmt.Errorf("invalid duration %q", s)
	}
}

func (d durationDeserializer) scale(text string) (time.Duration, error) {
	n, err := strconv.ParseUint(text, 10, 63)
	if err != nil {
		return 0, numberError("duration", text, err)
	}

	return time.Duration(n) * d.unit, nil
}

func (durationDeserializer) Serialize(v any) (value.Value, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return value.Value{}, unexpected(v, "time.Duration")
	}

	return value.String(d.String()), nil
}

type byteSizeDeserializer struct{}

// ByteSize 解析字节数（uint64），接受整数或 "16 MiB"、"1.5GB" 等字符串。
func ByteSize() Deserializer { return byteSizeDeserializer{} }

func (byteSizeDeserializer) Expecting() BasicTypes { return TypeInteger | TypeString }

func (byteSizeDeserializer) Deserialize(node value.Node) (any, error) {
	switch node.Value.Kind() {
	case value.KindNumber:
		n, _ := node.Value.AsNumber()
		return parseInteger[uint64](n.String())
	case value.KindString:
		s, _ := node.Value.AsString()
		size, err := humanize.ParseBytes(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid byte size %q: %w", s, err)
		}
		return size, nil
	default:
		return nil, typeError(TypeInteger|TypeString, node.Value)
	}
}

func (byteSizeDeserializer) Serialize(v any) (value.Value, error) {
	n, ok := v.(uint64)
	if !ok {
		return value.Value{}, unexpected(v, "uint64")
	}
	// 只有可无损解析回来的文本才用人类可读形式
	text := humanize.IBytes(n)
	if back, err := humanize.ParseBytes(text); err == nil && back == n {
		return value.String(text), nil
	}

	return value.Uint(n), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// 复合与自定义
// ═══════════════════════════════════════════════════════════════════════════════

type objectDeserializer[T any] struct{}

// Object 将 object 值按 json tag 解码为 T，适合作为单个参数的小型结构体。
func Object[T any]() Deserializer { return objectDeserializer[T]{} }

func (objectDeserializer[T]) Expecting() BasicTypes { return TypeObject }

func (objectDeserializer[T]) Deserialize(node value.Node) (any, error) {
	if coerced, ok := coerceJSON(node, value.KindObject); ok {
		node = coerced
	}
	if node.Value.Kind() != value.KindObject {
		return nil, typeError(TypeObject, node.Value)
	}

	var out T
	if err := decodeMap(node.Value.Interface(""), &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (objectDeserializer[T]) Serialize(v any) (value.Value, error) {
	if _, ok := v.(T); !ok {
		return value.Value{}, unexpected(v, reflect.TypeFor[T]().String())
	}
	raw := v
	if isStructType(reflect.TypeFor[T]()) {
		raw = structToMap(v)
	}
	node, err := value.FromAny(raw, nil)
	if err != nil {
		return value.Value{}, err
	}

	return node.Value, nil
}

type anyDeserializer struct{}

// Any 接受任意值，输出普通 Go 值（map[string]any、[]any、json.Number 等）。
func Any() Deserializer { return anyDeserializer{} }

func (anyDeserializer) Expecting() BasicTypes { return TypeAny }

func (anyDeserializer) Deserialize(node value.Node) (any, error) {
	return node.Value.Interface(""), nil
}

type customDeserializer struct {
	expecting BasicTypes
	fn        func(node value.Node) (any, error)
}

// Custom 使用自定义解析函数。
func Custom(expecting BasicTypes, fn func(node value.Node) (any, error)) Deserializer {
	return customDeserializer{expecting: expecting, fn: fn}
}

func (c customDeserializer) Expecting() BasicTypes { return c.expecting }

func (c customDeserializer) Deserialize(node value.Node) (any, error) { return c.fn(node) }
