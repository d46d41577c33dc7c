package cfgtree

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// keyValueSource 扁平 key/value 来源，借助 schema 还原层级结构。
//
// 转换规则：
//   - 去掉前缀（大小写不敏感）后转小写
//   - 与参数路径的 kv 形式比较，参数路径中的 "." 和 "-" 视为 "_"
//   - 期望 object 的参数接受 name_suffix 形式，值写入 {suffix: ...}
//   - 只期望 array 的参数接受 name_0、name_1 ... 形式，下标必须从 0 连续
//   - 精确匹配某个参数的 key 只用于该参数
//
// 无法匹配任何参数的 key 会被忽略。
type keyValueSource struct {
	origin    *value.Origin
	prefix    string
	vars      map[string]string
	keyOrigin func(key string) *value.Origin
}

// Env 从环境变量构造来源，vars 通常来自 env.ToMap(os.Environ())。
//
// prefix 例如 "APP"，可省略结尾的 "_"。
func Env(prefix string, vars map[string]string) Source {
	return KeyValues(value.SyntheticOrigin("env variables"), prefix, vars, value.EnvVarOrigin)
}

// KeyValues 构造通用的扁平 key/value 来源，keyOrigin 为每个 key 生成来源。
func KeyValues(origin *value.Origin, prefix string, vars map[string]string, keyOrigin func(key string) *value.Origin) Source {
	if prefix != "" && !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	if keyOrigin == nil {
		keyOrigin = func(key string) *value.Origin { return origin.Transform(fmt.Sprintf("key '%s'", key)) }
	}

	return &keyValueSource{origin: origin, prefix: prefix, vars: vars, keyOrigin: keyOrigin}
}

func (s *keyValueSource) Origin() *value.Origin { return s.origin }

// kvKey 将路径转换为 kv 比较形式。
func kvKey(path string) string {
	return strings.ToLower(strings.NewReplacer(".", "_", "-", "_").Replace(path))
}

func (s *keyValueSource) strip(key string) (string, bool) {
	if len(key) < len(s.prefix) || !strings.EqualFold(key[:len(s.prefix)], s.prefix) {
		return "", false
	}
	rest := key[len(s.prefix):]
	if rest == "" {
		return "", false
	}

	return kvKey(rest), true
}

func describeParam(pm *paramMount) string {
	if pm.parent == "" {
		return fmt.Sprintf("param '%s'", pm.name)
	}

	return fmt.Sprintf("param '%s' in '%s'", pm.name, pm.parent)
}

func (s *keyValueSource) Tree(schema *Schema) value.Node {
	index := make(map[string][]*paramMount)
	for _, pm := range schema.paramMounts() {
		key := kvKey(pm.path)
		index[key] = append(index[key], pm)
	}

	root := value.NewNode(value.Object(nil), s.origin)
	parentOrigin := func(path string) *value.Origin {
		return s.origin.Transform(fmt.Sprintf("nesting kv entries for '%s'", path))
	}
	place := func(path string, node value.Node) {
		root = root.With(path, node, parentOrigin)
	}

	type arrayItems struct {
		pm    *paramMount
		items map[int]value.Node
	}
	arrays := make(map[string]*arrayItems)

	keys := make([]string, 0, len(s.vars))
	for key := range s.vars {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		k, ok := s.strip(key)
		if !ok {
			continue
		}
		raw := value.String(s.vars[key])
		origin := s.keyOrigin(key)

		if exact := index[k]; len(exact) > 0 {
			for _, pm := range exact {
				place(pm.path, value.NewNode(raw, origin.Transform("placed as "+describeParam(pm))))
			}
			// 已精确命中参数的 key 不再作为更短参数的 object key 或数组下标
			continue
		}

		// object 参数：逐个尝试更短的前缀
		for i := strings.LastIndexByte(k, '_'); i > 0; i = strings.LastIndexByte(k[:i], '_') {
			candidate, suffix := k[:i], k[i+1:]
			for _, pm := range index[candidate] {
				expecting := pm.param.Expecting()
				switch {
				case expecting.Contains(TypeObject):
					desc := fmt.Sprintf("placed as key '%s' of %s", suffix, describeParam(pm))
					place(value.Join(pm.path, suffix), value.NewNode(raw, origin.Transform(desc)))
				case expecting.Contains(TypeArray) && candidate == k[:strings.LastIndexByte(k, '_')]:
					idx, err := strconv.Atoi(suffix)
					if err != nil || idx < 0 {
						continue
					}
					entry := arrays[pm.path]
					if entry == nil {
						entry = &arrayItems{pm: pm, items: make(map[int]value.Node)}
						arrays[pm.path] = entry
					}
					desc := fmt.Sprintf("placed as item %d of %s", idx, describeParam(pm))
					entry.items[idx] = value.NewNode(raw, origin.Transform(desc))
				}
			}
		}
	}

	paths := make([]string, 0, len(arrays))
	for path := range arrays {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		entry := arrays[path]
		if _, exists := root.Get(path); exists {
			continue
		}
		items := make([]value.Node, len(entry.items))
		sequential := true
		for i := range items {
			item, ok := entry.items[i]
			if !ok {
				sequential = false
				break
			}
			items[i] = item
		}
		if !sequential {
			continue
		}
		desc := fmt.Sprintf("array from indexed kv entries for %s", describeParam(entry.pm))
		place(path, value.NewNode(value.Array(items...), s.origin.Transform(desc)))
	}

	return root
}
