package cfgm

import (
	"bytes"
	"fmt"

	yamlv3 "go.yaml.in/yaml/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// ExampleYAML 根据 schema 中的默认值生成带注释的 YAML 示例。
//
// 参数与配置的 Help 写为对应 key 上方的注释；没有默认值的参数不会出现。
//
//	content, err := cfgm.ExampleYAML(schema)
//	os.WriteFile("config.example.yaml", content, 0644)
func ExampleYAML(schema *cfgtree.Schema) ([]byte, error) {
	defaults, err := cfgtree.DefaultsSource(schema)
	if err != nil {
		return nil, err
	}

	var doc yamlv3.Node
	if err := doc.Encode(defaults.Tree(schema).Value.Interface(value.Redacted)); err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	annotate(schema, &doc, "")

	return MarshalYAML(&doc)
}

// MarshalYAML 以两空格缩进输出 YAML。
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func annotate(schema *cfgtree.Schema, node *yamlv3.Node, at string) {
	if node.Kind != yamlv3.MappingNode {
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, child := node.Content[i], node.Content[i+1]
		path := value.Join(at, key.Value)

		if param, _, ok := schema.Param(path); ok {
			key.HeadComment = param.Help
		} else if refs := schema.Get(path); len(refs) > 0 && !refs[0].Flattened {
			key.HeadComment = refs[0].Meta.Help
		}
		annotate(schema, child, path)
	}
}
