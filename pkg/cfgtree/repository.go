package cfgtree

import (
	"log/slog"
	"math"
	"slices"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// Option 配置 [Repository]。
type Option func(*options)

type options struct {
	lookupEnv   LookupEnv
	noFallbacks bool
}

// WithLookupEnv 替换后备值读取环境变量的方式，默认 os.LookupEnv。
func WithLookupEnv(fn LookupEnv) Option {
	return func(o *options) {
		o.lookupEnv = fn
	}
}

// WithoutFallbacks 不收集参数的后备值。
func WithoutFallbacks() Option {
	return func(o *options) {
		o.noFallbacks = true
	}
}

// SourceOption 配置单个来源。
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	priority int
}

// WithPriority 设置来源优先级，数值越大越优先；同优先级时后添加的来源优先。
//
// 默认优先级为 0。
func WithPriority(priority int) SourceOption {
	return func(o *sourceOptions) {
		o.priority = priority
	}
}

// SourceInfo 来源的摘要信息。
type SourceInfo struct {
	Origin   *value.Origin
	Priority int
	// ParamCount 来源中可识别的参数个数（含别名位置）。
	ParamCount int
}

type sourceEntry struct {
	info SourceInfo
	tree value.Node
	seq  int
}

// Repository 按优先级组合多个来源，是解析与调试的入口。
//
// 合并结果不做缓存，每次查询都基于当前来源重新计算。
type Repository struct {
	schema  *Schema
	sources []*sourceEntry
	seq     int
}

// NewRepository 基于 schema 创建仓库，并收集参数后备值作为最低优先级的来源。
func NewRepository(schema *Schema, opts ...Option) *Repository {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	r := &Repository{schema: schema}
	if !o.noFallbacks {
		if tree, count := fallbackTree(schema, o.lookupEnv); count > 0 {
			r.push(tree, math.MinInt)
		}
	}

	return r
}

// Schema 返回仓库使用的 schema。
func (r *Repository) Schema() *Schema { return r.schema }

// Add 添加来源并返回仓库本身，便于链式调用。
func (r *Repository) Add(src Source, opts ...SourceOption) *Repository {
	o := &sourceOptions{}
	for _, opt := range opts {
		opt(o)
	}

	tree := src.Tree(r.schema)
	if tree.Origin == nil {
		tree.Origin = src.Origin()
	}
	r.push(tree, o.priority)

	return r
}

func (r *Repository) push(tree value.Node, priority int) {
	tree = r.markSecrets(tree)
	entry := &sourceEntry{
		info: SourceInfo{
			Origin:     tree.Origin,
			Priority:   priority,
			ParamCount: r.countParams(tree),
		},
		tree: tree,
		seq:  r.seq,
	}
	r.seq++
	r.sources = append(r.sources, entry)

	slog.Debug("Added config source", "origin", entry.info.Origin.String(), "priority", priority, "params", entry.info.ParamCount)
}

// markSecrets 把 secret 参数位置上的字符串标记为 secret，之后所有调试输出都会脱敏。
func (r *Repository) markSecrets(tree value.Node) value.Node {
	for _, pm := range r.schema.paramMounts() {
		if !pm.param.IsSecret() {
			continue
		}
		node, ok := tree.Get(pm.path)
		if !ok || node.Value.IsSecret() {
			continue
		}
		if node.Value.Kind() != value.KindString {
			slog.Warn("Secret param is not a string", "path", pm.path, "origin", node.Origin.String())
			continue
		}
		node.Value = node.Value.AsSecret()
		tree = tree.With(pm.path, node, nil)
	}

	return tree
}

func (r *Repository) countParams(tree value.Node) int {
	count := 0
	for _, pm := range r.schema.paramMounts() {
		if _, ok := tree.Get(pm.path); ok {
			count++
		}
	}

	return count
}

// ordered 按优先级从低到高返回来源快照。
func (r *Repository) ordered() []*sourceEntry {
	out := slices.Clone(r.sources)
	slices.SortStableFunc(out, func(a, b *sourceEntry) int {
		if a.info.Priority != b.info.Priority {
			if a.info.Priority < b.info.Priority {
				return -1
			}
			return 1
		}
		return a.seq - b.seq
	})

	return out
}

// Sources 按优先级从低到高返回来源信息。
func (r *Repository) Sources() []SourceInfo {
	ordered := r.ordered()
	out := make([]SourceInfo, len(ordered))
	for i, entry := range ordered {
		out[i] = entry.info
	}

	return out
}

// Merged 返回全部来源按优先级合并后的值树。
//
// 参数位置上的 object 值整体替换，不跨来源逐 key 合并。
func (r *Repository) Merged() value.Node {
	return mergeSources(r.ordered(), r.schema)
}

func mergeSources(sources []*sourceEntry, schema *Schema) value.Node {
	merged := value.NewNode(value.Object(nil), value.SyntheticOrigin("merged sources"))
	for _, entry := range sources {
		merged = value.MergeGuided(merged, entry.tree, "", schema.isParamPath)
	}

	return merged
}

// Resolve 返回合并树中 path 处的节点。
func (r *Repository) Resolve(path string) (value.Node, bool) {
	return r.Merged().Get(path)
}

// Resolved 参数解析结果。
type Resolved struct {
	Node value.Node
	// Path 值实际所在的路径，可能是别名路径。
	Path string
	// Name 命中的参数名或别名。
	Name string
	// Deprecated 命中的是废弃别名。
	Deprecated bool
	// Source 值所在的来源。
	Source SourceInfo
}

// ResolveParam 查找 configPath 下参数 param 的值。
//
// 从最高优先级来源开始，每个来源内按 规范名、当前别名、废弃别名 的顺序尝试，
// 配置别名路径排在规范路径之后。第一个定义了任一名称的来源胜出。
func (r *Repository) ResolveParam(configPath string, param *Param) (Resolved, bool) {
	paths := []string{configPath}
	for _, m := range r.schema.byPath[configPath] {
		if m.path == configPath && declares(m.meta, param.Name) {
			paths = m.paths()
			break
		}
	}

	return resolveParam(r.ordered(), paths, param)
}

// declares 报告配置是否声明了名为 name 的参数，各变体中的同名参数视为同一个。
func declares(meta *ConfigMetadata, name string) bool {
	for _, p := range meta.AllParams() {
		if p.Name == name {
			return true
		}
	}

	return false
}

func resolveParam(sources []*sourceEntry, paths []string, param *Param) (Resolved, bool) {
	canonical := value.Join(paths[0], param.Name)
	names := param.names()

	for i := len(sources) - 1; i >= 0; i-- {
		src := sources[i]
		// 更高优先级来源在祖先位置放置了非 object 值，低优先级的值不再可见
		if _, blocked := src.tree.BlockedAt(canonical); blocked {
			return Resolved{}, false
		}
		for _, base := range paths {
			for _, n := range names {
				full := value.Join(base, n.name)
				node, ok := src.tree.Get(full)
				if !ok {
					continue
				}
				return Resolved{
					Node:       node,
					Path:       full,
					Name:       n.name,
					Deprecated: n.deprecated,
					Source:     src.info,
				}, true
			}
		}
	}

	return Resolved{}, false
}
