package cfgtree

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// 集合参数接受多种原始形状，按以下顺序尝试：
//   - 原生 array / object
//   - 内容为 JSON array / object 的字符串，例如环境变量 APP_PORTS="[80, 443]"
//   - 分隔字符串，例如 "a,b,c" 或 "k1=v1,k2=v2"
//   - 元组数组，例如 [{key: k1, value: v1}, ...]（仅 map）
//
// 空字符串总是得到空集合而不是包含一个空元素的集合。

func castElem[T any](v any, index string) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected value type %T, want %s", index, v, reflect.TypeFor[T]())
	}

	return out, nil
}

// coerceJSON 把形如 "[...]" 或 "{...}" 的字符串按 JSON 解析，结果属于 kinds 之一时才采用。
func coerceJSON(node value.Node, kinds ...value.Kind) (value.Node, bool) {
	s, ok := node.Value.AsString()
	if !ok {
		return node, false
	}
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return node, false
	}
	switch {
	case s[0] == '[' && s[len(s)-1] == ']' && slices.Contains(kinds, value.KindArray):
	case s[0] == '{' && s[len(s)-1] == '}' && slices.Contains(kinds, value.KindObject):
	default:
		return node, false
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil || dec.More() {
		return node, false
	}
	parsed, err := value.FromAny(raw, node.Origin.Transform("parsed as JSON"))
	if err != nil {
		return node, false
	}
	return parsed, true
}

// splitDelimited 拆分分隔字符串，每个片段的来源记录其位置。
func splitDelimited(node value.Node, sep string) []value.Node {
	s, _ := node.Value.AsString()
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, sep)
	out := make([]value.Node, len(parts))
	for i, part := range parts {
		origin := node.Origin.Transform(fmt.Sprintf("item %d of %q-delimited string", i, sep))
		out[i] = value.NewNode(value.String(strings.TrimSpace(part)), origin)
	}

	return out
}

type listDeserializer[T any] struct {
	elem Deserializer
	sep  string
}

// List 解析 []T：接受原生数组，或以逗号分隔的字符串。
func List[T any](elem Deserializer) Deserializer {
	return listDeserializer[T]{elem: elem, sep: ","}
}

// Delimited 与 [List] 相同，但使用自定义分隔符，例如 ":" 用于 PATH 风格的值。
func Delimited[T any](elem Deserializer, sep string) Deserializer {
	return listDeserializer[T]{elem: elem, sep: sep}
}

func (l listDeserializer[T]) Expecting() BasicTypes { return TypeArray | TypeString }

func (l listDeserializer[T]) Deserialize(node value.Node) (any, error) {
	var items []value.Node
	switch node.Value.Kind() {
	case value.KindArray:
		items = node.Value.Items()
	case value.KindString:
		if coerced, ok := coerceJSON(node, value.KindArray); ok {
			items = coerced.Value.Items()
		} else {
			items = splitDelimited(node, l.sep)
		}
	default:
		return nil, typeError(l.Expecting(), node.Value, "array", fmt.Sprintf("%q-delimited string", l.sep))
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		raw, err := l.elem.Deserialize(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		elem, err := castElem[T](raw, fmt.Sprintf("item %d", i))
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}

	return out, nil
}

func (l listDeserializer[T]) Serialize(v any) (value.Value, error) {
	list, ok := v.([]T)
	if !ok {
		return value.Value{}, unexpected(v, reflect.TypeFor[[]T]().String())
	}

	items := make([]value.Node, len(list))
	for i, item := range list {
		raw, err := serialize(l.elem, item)
		if err != nil {
			return value.Value{}, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = value.Node{Value: raw}
	}

	return value.Array(items...), nil
}

type mapShape struct {
	keyField   string
	valueField string
	sep        string
}

// MapOption 调整 [Map] 接受的形状。
type MapOption func(*mapShape)

// Entries 设置元组数组形状中的 key 与 value 字段名，默认 "key" / "value"。
func Entries(keyField, valueField string) MapOption {
	return func(s *mapShape) {
		s.keyField = keyField
		s.valueField = valueField
	}
}

// Separator 设置分隔字符串形状中条目之间的分隔符，默认 ","。
func Separator(sep string) MapOption {
	return func(s *mapShape) { s.sep = sep }
}

type mapDeserializer[V any] struct {
	elem  Deserializer
	shape mapShape
}

// Map 解析 map[string]V：接受原生 object、"k1=v1,k2=v2" 字符串或 {key, value} 元组数组。
func Map[V any](elem Deserializer, opts ...MapOption) Deserializer {
	shape := mapShape{keyField: "key", valueField: "value", sep: ","}
	for _, opt := range opts {
		opt(&shape)
	}

	return mapDeserializer[V]{elem: elem, shape: shape}
}

func (m mapDeserializer[V]) Expecting() BasicTypes { return TypeObject | TypeArray | TypeString }

func (m mapDeserializer[V]) Deserialize(node value.Node) (any, error) {
	switch node.Value.Kind() {
	case value.KindObject:
		out := make(map[string]V, node.Value.Len())
		for _, key := range node.Value.Keys() {
			child, _ := node.Value.Field(key)
			if err := m.put(out, key, child); err != nil {
				return nil, err
			}
		}
		return out, nil
	case value.KindString:
		if coerced, ok := coerceJSON(node, value.KindObject, value.KindArray); ok {
			return m.Deserialize(coerced)
		}
		return m.fromDelimited(node)
	case value.KindArray:
		return m.fromEntries(node)
	default:
		return nil, typeError(m.Expecting(), node.Value,
			"object",
			fmt.Sprintf("%q-delimited key=value string", m.shape.sep),
			fmt.Sprintf("array of {%s, %s} objects", m.shape.keyField, m.shape.valueField))
	}
}

func (m mapDeserializer[V]) put(out map[string]V, key string, node value.Node) error {
	if _, exists := out[key]; exists {
		return fmt.Errorf("duplicate key %q", key)
	}
	raw, err := m.elem.Deserialize(node)
	if err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	elem, err := castElem[V](raw, fmt.Sprintf("key %q", key))
	if err != nil {
		return err
	}
	out[key] = elem

	return nil
}

func (m mapDeserializer[V]) fromDelimited(node value.Node) (map[string]V, error) {
	out := make(map[string]V)
	for i, part := range splitDelimited(node, m.shape.sep) {
		s, _ := part.Value.AsString()
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("entry %d: expected key=value, got %q", i, s)
		}
		entry := value.NewNode(value.String(strings.TrimSpace(val)), part.Origin)
		if err := m.put(out, strings.TrimSpace(key), entry); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (m mapDeserializer[V]) fromEntries(node value.Node) (map[string]V, error) {
	out := make(map[string]V, node.Value.Len())
	for i, item := range node.Value.Items() {
		if item.Value.Kind() != value.KindObject {
			return nil, fmt.Errorf("entry %d: %w", i, typeError(TypeObject, item.Value))
		}
		keyNode, ok := item.Value.Field(m.shape.keyField)
		if !ok {
			return nil, fmt.Errorf("entry %d: missing field %q", i, m.shape.keyField)
		}
		key, ok := scalarText(keyNode.Value)
		if !ok {
			return nil, fmt.Errorf("entry %d: key must be a string, got %s", i, keyNode.Value.Kind())
		}
		valNode, ok := item.Value.Field(m.shape.valueField)
		if !ok {
			return nil, fmt.Errorf("entry %d: missing field %q", i, m.shape.valueField)
		}
		if err := m.put(out, key, valNode); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (m mapDeserializer[V]) Serialize(v any) (value.Value, error) {
	typed, ok := v.(map[string]V)
	if !ok {
		return value.Value{}, unexpected(v, reflect.TypeFor[map[string]V]().String())
	}

	fields := make(map[string]value.Node, len(typed))
	for key, item := range typed {
		raw, err := serialize(m.elem, item)
		if err != nil {
			return value.Value{}, fmt.Errorf("key %q: %w", key, err)
		}
		fields[key] = value.Node{Value: raw}
	}

	return value.Object(fields), nil
}
