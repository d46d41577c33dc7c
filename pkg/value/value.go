package value

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Kind 值类型。
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Redacted 是 secret 字符串在调试输出中的占位符。
const Redacted = "[REDACTED]"

// Value 不可变的类 JSON 值。零值为 null。
type Value struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	secret bool
	sealed bool
	arr    []Node
	obj    map[string]Node
}

// Node 是带来源的值 (WithOrigin<Value>)。
type Node struct {
	Value  Value
	Origin *Origin
}

// NewNode 组装节点。
func NewNode(v Value, origin *Origin) Node {
	return Node{Value: v, Origin: origin}
}

// Null 返回 null 值。
func Null() Value { return Value{} }

// Bool 返回布尔值。
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int 返回整数值。
func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// Uint 返回无符号整数值。
func Uint(u uint64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatUint(u, 10))}
}

// Float 返回浮点值。
func Float(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Number 返回数字值，n 必须是合法的 JSON 数字字面量。
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// String 返回字符串值。
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array 返回数组值，items 会被复制。
func Array(items ...Node) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

// Object 返回对象值，fields 会被复制。
func Object(fields map[string]Node) Value {
	if fields == nil {
		fields = map[string]Node{}
	}

	return Value{kind: KindObject, obj: maps.Clone(fields)}
}

// Kind 返回值类型。
func (v Value) Kind() Kind { return v.kind }

// IsNull 判断是否为 null。
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool 返回布尔值。
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber 返回数字字面量。
func (v Value) AsNumber() (json.Number, bool) { return v.num, v.kind == KindNumber }

// AsString 返回字符串内容（secret 也会返回原文，调用方负责不泄露）。
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// IsSecret 判断字符串是否被标记为 secret。
func (v Value) IsSecret() bool { return v.secret }

// AsSecret 返回标记为 secret 的副本；非字符串值原样返回。
func (v Value) AsSecret() Value {
	if v.kind == KindString {
		v.secret = true
	}

	return v
}

// Sealed 报告 object 是否在合并时覆盖了非 object 值，见 [Merge]。
func (v Value) Sealed() bool { return v.sealed }

// Len 返回数组或对象的元素个数。
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Items 返回数组元素的副本。
func (v Value) Items() []Node {
	if v.kind != KindArray {
		return nil
	}

	return slices.Clone(v.arr)
}

// Field 返回对象字段。
func (v Value) Field(key string) (Node, bool) {
	if v.kind != KindObject {
		return Node{}, false
	}
	n, ok := v.obj[key]

	return n, ok
}

// Keys 返回排序后的对象 key。
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}

	return slices.Sorted(maps.Keys(v.obj))
}

// Fields 返回对象字段的副本。
func (v Value) Fields() map[string]Node {
	if v.kind != KindObject {
		return nil
	}

	return maps.Clone(v.obj)
}

// Equal 深度比较两个值（忽略来源，比较 secret 与 sealed 标记）。
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.secret != other.secret || v.sealed != other.sealed {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindArray:
		return slices.EqualFunc(v.arr, other.arr, func(a, b Node) bool { return a.Value.Equal(b.Value) })
	case KindObject:
		return maps.EqualFunc(v.obj, other.obj, func(a, b Node) bool { return a.Value.Equal(b.Value) })
	default:
		return false
	}
}

// String 返回稳定的调试表示，object key 排序，secret 被替换为 [Redacted]。
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)

	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(v.num.String())
	case KindString:
		if v.secret {
			sb.WriteString(Redacted)
			return
		}
		sb.WriteString(strconv.Quote(v.str))
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.Value.writeTo(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, key := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(key))
			sb.WriteString(": ")
			v.obj[key].Value.writeTo(sb)
		}
		sb.WriteByte('}')
	}
}

// Interface 转换为普通 Go 值（map[string]any / []any / json.Number ...）。
//
// secret 字符串会被替换为 placeholder；placeholder 为空时保留原文。
func (v Value) Interface(placeholder string) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		if v.secret && placeholder != "" {
			return placeholder
		}
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Value.Interface(placeholder)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for key, item := range v.obj {
			out[key] = item.Value.Interface(placeholder)
		}
		return out
	default:
		return nil
	}
}

// FromAny 将解码后的 Go 值（encoding/json、yaml 的 any 结果）转换为节点树。
//
// 每个节点的来源为 origin.Path(节点路径)，根节点来源为 origin 本身。
func FromAny(raw any, origin *Origin) (Node, error) {
	return fromAny(raw, origin, "")
}

func fromAny(raw any, origin *Origin, at string) (Node, error) {
	nodeOrigin := origin.Path(at)

	var v Value
	switch typed := raw.(type) {
	case nil:
		v = Null()
	case Value:
		v = typed
	case Node:
		return typed, nil
	case bool:
		v = Bool(typed)
	case string:
		v = String(typed)
	case json.Number:
		v = Number(typed)
	case int:
		v = Int(int64(typed))
	case int8:
		v = Int(int64(typed))
	case int16:
		v = Int(int64(typed))
	case int32:
		v = Int(int64(typed))
	case int64:
		v = Int(typed)
	case uint:
		v = Uint(uint64(typed))
	case uint8:
		v = Uint(uint64(typed))
	case uint16:
		v = Uint(uint64(typed))
	case uint32:
		v = Uint(uint64(typed))
	case uint64:
		v = Uint(typed)
	case float32:
		v = Float(float64(typed))
	case float64:
		v = Float(typed)
	case []any:
		items := make([]Node, len(typed))
		for i, item := range typed {
			child, err := fromAny(item, origin, Join(at, strconv.Itoa(i)))
			if err != nil {
				return Node{}, err
			}
			items[i] = child
		}
		v = Value{kind: KindArray, arr: items}
	case []string:
		items := make([]Node, len(typed))
		for i, item := range typed {
			items[i] = Node{Value: String(item), Origin: origin.Path(Join(at, strconv.Itoa(i)))}
		}
		v = Value{kind: KindArray, arr: items}
	case map[string]any:
		fields := make(map[string]Node, len(typed))
		for key, item := range typed {
			child, err := fromAny(item, origin, Join(at, key))
			if err != nil {
				return Node{}, err
			}
			fields[key] = child
		}
		v = Value{kind: KindObject, obj: fields}
	case map[any]any:
		fields := make(map[string]Node, len(typed))
		for key, item := range typed {
			name := fmt.Sprintf("%v", key)
			child, err := fromAny(item, origin, Join(at, name))
			if err != nil {
				return Node{}, err
			}
			fields[name] = child
		}
		v = Value{kind: KindObject, obj: fields}
	case map[string]string:
		fields := make(map[string]Node, len(typed))
		for key, item := range typed {
			fields[key] = Node{Value: String(item), Origin: origin.Path(Join(at, key))}
		}
		v = Value{kind: KindObject, obj: fields}
	case fmt.Stringer:
		v = String(typed.String())
	default:
		return Node{}, fmt.Errorf("unsupported value type %T at '%s'", raw, at)
	}

	return Node{Value: v, Origin: nodeOrigin}, nil
}
