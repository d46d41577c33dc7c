package cfgtree

import (
	"fmt"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// Source 配置来源适配器。
//
// Tree 把来源内容转换为层级值树；需要 schema 才能还原层级的来源（环境变量等）会使用它。
type Source interface {
	Origin() *value.Origin
	Tree(schema *Schema) value.Node
}

type treeSource struct {
	node value.Node
}

// Hierarchical 包装一棵已构建的值树（例如解码后的 YAML / JSON 文件）。
func Hierarchical(node value.Node) Source {
	return treeSource{node: node}
}

// FromMap 将解码后的 map 转换为来源，每个值的来源为 origin 下的路径。
func FromMap(origin *value.Origin, raw map[string]any) (Source, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	node, err := value.FromAny(raw, origin)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", origin, err)
	}

	return treeSource{node: node}, nil
}

func (s treeSource) Origin() *value.Origin { return s.node.Origin }

func (s treeSource) Tree(*Schema) value.Node { return s.node }

type prefixedSource struct {
	inner  Source
	prefix string
}

// Prefixed 将来源整体挂到 prefix 路径下，例如把独立的 "database.yaml" 挂到 "database"。
func Prefixed(src Source, prefix string) Source {
	return prefixedSource{inner: src, prefix: prefix}
}

func (s prefixedSource) Origin() *value.Origin {
	return s.inner.Origin().Transform(fmt.Sprintf("prefixed with `%s`", s.prefix))
}

func (s prefixedSource) Tree(schema *Schema) value.Node {
	inner := s.inner.Tree(schema)
	if s.prefix == "" {
		return inner
	}

	origin := s.Origin()
	root := value.NewNode(value.Object(nil), origin)

	return root.With(s.prefix, inner, func(string) *value.Origin { return origin })
}

type defaultsSource struct {
	node value.Node
}

// DefaultsSource 把 schema 中所有参数的默认值写成一个来源。
//
// 只有可序列化的默认值会被写入；默认变体的标签值也会被写入。
// 以该来源解析的结果与不提供任何来源时的结果一致。
func DefaultsSource(schema *Schema) (Source, error) {
	origin := value.SyntheticOrigin("defaults")
	root := value.NewNode(value.Object(nil), origin)
	parentOrigin := func(path string) *value.Origin { return origin.Path(path) }

	for _, m := range schema.mounts {
		meta := m.meta
		if dv := meta.DefaultVariant(); dv != nil {
			tagPath := value.Join(m.path, meta.Tag.Param.Name)
			root = root.With(tagPath, value.NewNode(value.String(dv.Name), origin.Path(tagPath)), parentOrigin)
		}

		for _, p := range meta.AllParams() {
			if p.Default == nil {
				continue
			}
			def := p.Default()
			if def == nil {
				continue
			}
			raw, err := serialize(p.Deserializer, def)
			if err != nil {
				return nil, fmt.Errorf("serialize default of param `%s` in `%s`: %w", p.Name, meta.Name, err)
			}
			path := value.Join(m.path, p.Name)
			root = root.With(path, value.NewNode(raw, origin.Path(path)), parentOrigin)
		}
	}

	return defaultsSource{node: root}, nil
}

func (s defaultsSource) Origin() *value.Origin { return s.node.Origin }

func (s defaultsSource) Tree(*Schema) value.Node { return s.node }
