package cfgm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	yamlv3 "go.yaml.in/yaml/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/templexp"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// FileSource 把配置文件内容解析为来源，格式由扩展名决定（.json 为 JSON，其余按 YAML）。
//
// expander 非 nil 时对字符串叶子执行 Shell 参数展开。
func FileSource(path string, content []byte, expander *templexp.Expander) (cfgtree.Source, error) {
	raw, err := parseConfigBytes(path, content)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	node, err := value.FromAny(raw, value.FileOrigin(path, formatOf(path)))
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if expander != nil {
		if node, err = expander.ExpandNode(node); err != nil {
			return nil, fmt.Errorf("expand template in %s: %w", path, err)
		}
	}

	return cfgtree.Hierarchical(node), nil
}

func formatOf(path string) string {
	if isJSONPath(path) {
		return "json"
	}

	return "yaml"
}

func parseConfigBytes(path string, content []byte) (map[string]any, error) {
	var raw any
	var err error
	if isJSONPath(path) {
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.UseNumber()
		err = dec.Decode(&raw)
	} else {
		err = yamlv3.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, err
	}

	normalized := normalizeMapKeys(raw)
	if normalized == nil {
		return map[string]any{}, nil
	}
	configMap, ok := normalized.(map[string]any)
	if !ok {
		return nil, errors.New("config root must be object")
	}

	return configMap, nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func normalizeMapKeys(val any) any {
	switch typed := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[key] = normalizeMapKeys(v)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[fmt.Sprintf("%v", key)] = normalizeMapKeys(v)
		}

		return out
	case []any:
		for i := range typed {
			typed[i] = normalizeMapKeys(typed[i])
		}
		return typed
	default:
		return val
	}
}
