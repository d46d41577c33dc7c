package cfgtree

import (
	"reflect"
	"strings"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// BasicTypes 参数可接受的原始值形状集合（位掩码）。
type BasicTypes uint8

const (
	TypeBool BasicTypes = 1 << iota
	TypeInteger
	TypeFloat
	TypeString
	TypeArray
	TypeObject

	// TypeAny 接受任意形状。
	TypeAny = TypeBool | TypeInteger | TypeFloat | TypeString | TypeArray | TypeObject
)

// Contains 判断 t 是否包含 other 的全部形状。
func (t BasicTypes) Contains(other BasicTypes) bool {
	return other != 0 && t&other == other
}

func (t BasicTypes) String() string {
	if t == TypeAny {
		return "any"
	}

	names := []struct {
		bit  BasicTypes
		name string
	}{
		{TypeBool, "boolean"},
		{TypeInteger, "integer"},
		{TypeFloat, "float"},
		{TypeString, "string"},
		{TypeArray, "array"},
		{TypeObject, "object"},
	}
	var parts []string
	for _, n := range names {
		if t&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}

	return strings.Join(parts, " | ")
}

// Alias 参数或嵌套配置的别名。
type Alias struct {
	Name       string
	Deprecated bool // 已废弃的别名：仍然生效，但使用时输出告警
}

// Param 描述一个配置参数。
//
// Param 由调用方以数据形式构造（手写、代码生成或反射均可），构造后视为只读。
type Param struct {
	// Name 规范名称，即在值树中的 key。
	Name string
	// Aliases 别名；同组内按声明顺序尝试，当前别名先于废弃别名。
	Aliases []Alias
	// Field 输出 map 中的 key（即目标结构体的 json tag），为空时使用 Name。
	Field string
	// Help 说明文字，仅供展示层使用。
	Help string
	// Deserializer 将原始值转换为类型化值。
	Deserializer Deserializer
	// Default 默认值策略；nil 表示必填。
	Default func() any
	// Fallback 可选的后备来源，优先级低于所有其他来源。
	Fallback *Fallback
	// Validators 按顺序执行的校验器。
	Validators []Validator
}

// FieldName 返回输出 key。
func (p *Param) FieldName() string {
	if p.Field != "" {
		return p.Field
	}

	return p.Name
}

// Expecting 返回参数接受的原始值形状。
func (p *Param) Expecting() BasicTypes {
	if p.Deserializer == nil {
		return 0
	}

	return p.Deserializer.Expecting()
}

// IsSecret 报告参数是否使用 secret 反序列化器。
func (p *Param) IsSecret() bool {
	s, ok := p.Deserializer.(interface{ IsSecret() bool })

	return ok && s.IsSecret()
}

// paramName 参数的一个可用名称。
type paramName struct {
	name       string
	deprecated bool
}

// names 按解析优先级返回所有名称：规范名、当前别名、废弃别名。
func (p *Param) names() []paramName {
	out := make([]paramName, 0, len(p.Aliases)+1)
	out = append(out, paramName{name: p.Name})
	for _, alias := range p.Aliases {
		if !alias.Deprecated {
			out = append(out, paramName{name: alias.Name})
		}
	}
	for _, alias := range p.Aliases {
		if alias.Deprecated {
			out = append(out, paramName{name: alias.Name, deprecated: true})
		}
	}

	return out
}

// Nested 描述嵌套的子配置。
type Nested struct {
	// Name 子配置在父路径下的名称；为空表示扁平化（参数直接挂在父路径）。
	Name string
	// Aliases 子配置路径的别名，扁平化配置不支持别名。
	Aliases []Alias
	// Field 输出 map 中的 key；为空且扁平化时，子配置的字段直接并入父 map。
	Field string
	// Meta 子配置元数据。
	Meta *ConfigMetadata
	// Optional 为 true 时，路径下没有任何值则输出 nil 而不是报错。
	Optional bool
}

// Flattened 报告是否扁平化挂载。
func (n *Nested) Flattened() bool { return n.Name == "" }

// FieldName 返回输出 key，扁平化且未指定 Field 时为空。
func (n *Nested) FieldName() string {
	if n.Field != "" {
		return n.Field
	}

	return n.Name
}

// Variant 标签判别配置的一个变体。
type Variant struct {
	// Name 规范标签值。
	Name string
	// Aliases 其他可接受的标签值。
	Aliases []string
	Help    string
	// Params 仅在该变体被选中时生效的参数。
	Params []*Param
	// Nested 仅在该变体被选中时生效的子配置。
	Nested []*Nested
	// Default 标签缺失时选用该变体，最多一个。
	Default bool
}

func (v *Variant) matches(tag string) bool {
	if v.Name == tag {
		return true
	}
	for _, alias := range v.Aliases {
		if alias == tag {
			return true
		}
	}

	return false
}

// Tag 标签判别规则。
type Tag struct {
	// Param 判别参数，Deserializer 为空时按字符串解析。
	Param *Param
	// Variants 有序的变体列表。
	Variants []*Variant
}

// ConfigMetadata 描述一个配置类型。
type ConfigMetadata struct {
	// Name 类型名，用于诊断信息。
	Name string
	Help string
	// Type 可选的目标类型；设置后每一层的字段 map 会通过 mapstructure 解码为该类型。
	Type reflect.Type
	// Params 公共参数（对所有变体生效）。
	Params []*Param
	// Nested 公共子配置。
	Nested []*Nested
	// Tag 非 nil 表示标签判别配置。
	Tag *Tag
	// Validators 整体校验器，在所有参数解析成功后执行。
	Validators []ConfigValidator
}

// DefaultVariant 返回默认变体。
func (m *ConfigMetadata) DefaultVariant() *Variant {
	if m.Tag == nil {
		return nil
	}
	for _, v := range m.Tag.Variants {
		if v.Default {
			return v
		}
	}

	return nil
}

// Variant 按标签值查找变体。
func (m *ConfigMetadata) Variant(tag string) *Variant {
	if m.Tag == nil {
		return nil
	}
	for _, v := range m.Tag.Variants {
		if v.matches(tag) {
			return v
		}
	}

	return nil
}

// AllParams 返回所有参数：标签参数、公共参数与各变体参数（同名变体参数只保留首个）。
func (m *ConfigMetadata) AllParams() []*Param {
	var out []*Param
	seen := make(map[string]bool)
	add := func(p *Param) {
		if seen[p.Name] {
			return
		}
		seen[p.Name] = true
		out = append(out, p)
	}

	if m.Tag != nil && m.Tag.Param != nil {
		add(m.Tag.Param)
	}
	for _, p := range m.Params {
		add(p)
	}
	if m.Tag != nil {
		for _, v := range m.Tag.Variants {
			for _, p := range v.Params {
				add(p)
			}
		}
	}

	return out
}

// AllNested 返回公共子配置与各变体子配置。
func (m *ConfigMetadata) AllNested() []*Nested {
	out := append([]*Nested(nil), m.Nested...)
	if m.Tag != nil {
		for _, v := range m.Tag.Variants {
			out = append(out, v.Nested...)
		}
	}

	return out
}

func (m *ConfigMetadata) tagValues() []string {
	if m.Tag == nil {
		return nil
	}
	out := make([]string, 0, len(m.Tag.Variants))
	for _, v := range m.Tag.Variants {
		out = append(out, v.Name)
	}

	return out
}

// nestedPaths 计算子配置的规范路径与别名路径。
//
// bases[0] 为父配置的规范路径，其余为父配置的别名路径。
func nestedPaths(bases []string, n *Nested) []string {
	if n.Flattened() {
		return bases
	}

	names := make([]string, 0, len(n.Aliases)+1)
	names = append(names, n.Name)
	for _, alias := range n.Aliases {
		names = append(names, alias.Name)
	}

	out := make([]string, 0, len(bases)*len(names))
	for _, base := range bases {
		for _, name := range names {
			out = appendUnique(out, value.Join(base, name))
		}
	}

	return out
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}

	return append(list, s)
}

// DefaultValue 返回固定默认值策略。
func DefaultValue(v any) func() any {
	return func() any { return v }
}

// DefaultFunc 返回计算型默认值策略。
func DefaultFunc[T any](fn func() T) func() any {
	return func() any { return fn() }
}

// Optional 参数缺失时输出 nil 而不是报错。
func Optional() any { return nil }
