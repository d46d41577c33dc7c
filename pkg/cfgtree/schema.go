package cfgtree

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// ErrNotFound 表示 schema 中不存在请求的配置。
var ErrNotFound = errors.New("config not found in schema")

// ConfigRef schema 中一次配置挂载的只读视图。
type ConfigRef struct {
	// Path 规范路径，"" 表示根。
	Path string
	// Aliases 别名路径（由嵌套配置的别名派生）。
	Aliases []string
	Meta    *ConfigMetadata
	// Flattened 参数直接挂在 Path 上，与其他扁平化配置共享该路径。
	Flattened bool
	// Root 由调用方直接插入，而不是作为子配置派生。
	Root bool
}

// Paths 返回规范路径与别名路径，规范路径在前。
func (r ConfigRef) Paths() []string {
	return append([]string{r.Path}, r.Aliases...)
}

type mount struct {
	path      string
	aliases   []string
	meta      *ConfigMetadata
	flattened bool
	root      bool
	owner     *mount
}

func (m *mount) paths() []string {
	return append([]string{m.path}, m.aliases...)
}

func (m *mount) ref() ConfigRef {
	return ConfigRef{
		Path:      m.path,
		Aliases:   slices.Clone(m.aliases),
		Meta:      m.meta,
		Flattened: m.flattened,
		Root:      m.root,
	}
}

func (m *mount) String() string {
	return fmt.Sprintf("config `%s` at `%s`", m.meta.Name, m.path)
}

// derivedFrom 报告 m 是否由 ancestor 派生（沿 owner 链可达）。
func (m *mount) derivedFrom(ancestor *mount) bool {
	for cur := m.owner; cur != nil; cur = cur.owner {
		if cur == ancestor {
			return true
		}
	}

	return false
}

// paramMount 参数在值树中的一个可能位置。
type paramMount struct {
	path   string
	parent string
	name   string
	param  *Param
	config *mount
}

// Schema 记录配置挂载位置的注册表。
//
// 插入是原子的：任一冲突都会让整次插入失败，schema 保持原样。
type Schema struct {
	mounts []*mount
	byPath map[string][]*mount
	params map[string]*paramMount
	names  map[string]map[string]*mount
}

// NewSchema 创建空 schema。
func NewSchema() *Schema {
	return &Schema{
		byPath: make(map[string][]*mount),
		params: make(map[string]*paramMount),
		names:  make(map[string]map[string]*mount),
	}
}

func (s *Schema) clone() *Schema {
	out := &Schema{
		mounts: slices.Clone(s.mounts),
		byPath: make(map[string][]*mount, len(s.byPath)),
		params: maps.Clone(s.params),
		names:  make(map[string]map[string]*mount, len(s.names)),
	}
	for path, list := range s.byPath {
		out.byPath[path] = slices.Clone(list)
	}
	for path, names := range s.names {
		out.names[path] = maps.Clone(names)
	}

	return out
}

// Insert 将 meta 及其全部子配置挂载到 path。
//
// 同一 meta 重复插入到同一 path 是空操作。
func (s *Schema) Insert(meta *ConfigMetadata, path string) error {
	return s.insert(meta, path, false)
}

// InsertFlattened 将 meta 以扁平化方式挂载到 path，可与其他扁平化配置共享同一路径。
func (s *Schema) InsertFlattened(meta *ConfigMetadata, path string) error {
	return s.insert(meta, path, true)
}

func (s *Schema) insert(meta *ConfigMetadata, path string, flattened bool) error {
	if err := checkMetadata(meta, nil); err != nil {
		return err
	}
	for _, existing := range s.byPath[path] {
		if existing.meta == meta && existing.path == path && existing.flattened == flattened {
			existing.root = true
			return nil
		}
	}

	next := s.clone()
	root := &mount{path: path, meta: meta, flattened: flattened, root: true}
	if err := next.add(root); err != nil {
		return err
	}
	*s = *next

	slog.Debug("Inserted config into schema", "config", meta.Name, "path", path, "flattened", flattened)

	return nil
}

func (s *Schema) add(m *mount) error {
	for _, path := range m.paths() {
		for _, other := range s.byPath[path] {
			if other.meta == m.meta && other.flattened == m.flattened && other.path == m.path {
				return nil
			}
			if other.path != m.path {
				return mountConflict("%s shares path `%s` with alias of %s", m, path, other)
			}
			if m.flattened && other.flattened {
				continue
			}
			if m.derivedFrom(other) || other.derivedFrom(m) {
				continue
			}
			return mountConflict("%s overlaps with %s; only flattened configs may share a path", m, other)
		}
		if pm, ok := s.params[path]; ok {
			return mountConflict("%s is mounted at the path of param `%s` in %s", m, pm.name, pm.config)
		}
	}

	if err := s.claimNames(m); err != nil {
		return err
	}
	if err := s.mountParams(m); err != nil {
		return err
	}

	s.mounts = append(s.mounts, m)
	for _, path := range m.paths() {
		s.byPath[path] = append(s.byPath[path], m)
	}

	for _, nested := range m.meta.AllNested() {
		paths := nestedPaths(m.paths(), nested)
		child := &mount{
			path:      paths[0],
			aliases:   paths[1:],
			meta:      nested.Meta,
			flattened: nested.Flattened(),
			owner:     m,
		}
		if err := s.add(child); err != nil {
			return err
		}
	}

	return nil
}

// ownNames 返回配置直接占用的 key：参数名、参数别名、嵌套配置名与其别名。
func ownNames(meta *ConfigMetadata) []string {
	var out []string
	for _, p := range meta.AllParams() {
		for _, n := range p.names() {
			out = appendUnique(out, n.name)
		}
	}
	for _, nested := range meta.AllNested() {
		if nested.Flattened() {
			continue
		}
		out = appendUnique(out, nested.Name)
		for _, alias := range nested.Aliases {
			out = appendUnique(out, alias.Name)
		}
	}

	return out
}

func (s *Schema) claimNames(m *mount) error {
	names := ownNames(m.meta)
	for _, path := range m.paths() {
		claimed := s.names[path]
		if claimed == nil {
			claimed = make(map[string]*mount)
			s.names[path] = claimed
		}
		for _, name := range names {
			if owner, ok := claimed[name]; ok && owner != m {
				return mountConflict("name `%s` at `%s` is used by both %s and %s", name, path, owner, m)
			}
			claimed[name] = m
		}
	}

	return nil
}

func (s *Schema) mountParams(m *mount) error {
	for _, path := range m.paths() {
		for _, p := range m.meta.AllParams() {
			for _, n := range p.names() {
				full := value.Join(path, n.name)
				if others := s.byPath[full]; len(others) > 0 {
					return mountConflict("param `%s` in %s is mounted at the path of %s", p.Name, m, others[0])
				}
				s.params[full] = &paramMount{path: full, parent: path, name: n.name, param: p, config: m}
			}
		}
	}

	return nil
}

// checkMetadata 检查单个配置描述的内部一致性。
func checkMetadata(meta *ConfigMetadata, stack []*ConfigMetadata) error {
	if meta == nil {
		return mountConflict("nil config metadata")
	}
	if slices.Contains(stack, meta) {
		return mountConflict("config `%s` contains itself", meta.Name)
	}
	stack = append(stack, meta)

	owners := make(map[string]string)
	claim := func(name, what string) error {
		if prev, ok := owners[name]; ok {
			return mountConflict("name `%s` in config `%s` is used by both %s and %s", name, meta.Name, prev, what)
		}
		owners[name] = what
		return nil
	}
	claimParam := func(p *Param) error {
		for _, n := range p.names() {
			if err := claim(n.name, fmt.Sprintf("param `%s`", p.Name)); err != nil {
				return err
			}
		}
		return nil
	}

	common := slices.Clone(meta.Params)
	if meta.Tag != nil {
		if meta.Tag.Param == nil {
			return mountConflict("tagged config `%s` has no tag param", meta.Name)
		}
		if len(meta.Tag.Variants) == 0 {
			return mountConflict("tagged config `%s` has no variants", meta.Name)
		}
		common = append(common, meta.Tag.Param)
	}
	for _, p := range common {
		if p.Deserializer == nil && (meta.Tag == nil || p != meta.Tag.Param) {
			return mountConflict("param `%s` in config `%s` has no deserializer", p.Name, meta.Name)
		}
		if err := claimParam(p); err != nil {
			return err
		}
	}
	for _, nested := range meta.Nested {
		if err := checkNested(meta, nested, claim, stack); err != nil {
			return err
		}
	}

	if meta.Tag == nil {
		return nil
	}

	// 不同变体可以声明同名参数，但期望的形状必须一致
	variantParams := make(map[string]*Param)
	tagValues := make(map[string]bool)
	defaults := 0
	for _, v := range meta.Tag.Variants {
		for _, tag := range append([]string{v.Name}, v.Aliases...) {
			if tagValues[tag] {
				return mountConflict("tag value `%s` is used by several variants of config `%s`", tag, meta.Name)
			}
			tagValues[tag] = true
		}
		if v.Default {
			defaults++
		}
		for _, p := range v.Params {
			if p.Deserializer == nil {
				return mountConflict("param `%s` in config `%s` has no deserializer", p.Name, meta.Name)
			}
			if prev, ok := variantParams[p.Name]; ok {
				if prev.Expecting() != p.Expecting() {
					return mountConflict("param `%s` in config `%s` expects both %s and %s across variants",
						p.Name, meta.Name, prev.Expecting(), p.Expecting())
				}
				continue
			}
			variantParams[p.Name] = p
			if err := claimParam(p); err != nil {
				return err
			}
		}
		for _, nested := range v.Nested {
			if err := checkNested(meta, nested, claim, stack); err != nil {
				return err
			}
		}
	}
	if defaults > 1 {
		return mountConflict("config `%s` declares %d default variants", meta.Name, defaults)
	}

	return nil
}

func checkNested(meta *ConfigMetadata, nested *Nested, claim func(name, what string) error, stack []*ConfigMetadata) error {
	if nested.Meta == nil {
		return mountConflict("nested config `%s` in `%s` has no metadata", nested.Name, meta.Name)
	}
	if nested.Flattened() {
		if len(nested.Aliases) > 0 {
			return mountConflict("flattened config `%s` in `%s` cannot have aliases", nested.Meta.Name, meta.Name)
		}
	} else {
		what := fmt.Sprintf("nested config `%s`", nested.Name)
		if err := claim(nested.Name, what); err != nil {
			return err
		}
		for _, alias := range nested.Aliases {
			if err := claim(alias.Name, what); err != nil {
				return err
			}
		}
	}

	return checkMetadata(nested.Meta, stack)
}

// Configs 按插入顺序返回全部挂载，包含派生的子配置。
func (s *Schema) Configs() []ConfigRef {
	out := make([]ConfigRef, len(s.mounts))
	for i, m := range s.mounts {
		out[i] = m.ref()
	}

	return out
}

// Roots 按插入顺序返回调用方直接插入的挂载。
func (s *Schema) Roots() []ConfigRef {
	var out []ConfigRef
	for _, m := range s.mounts {
		if m.root {
			out = append(out, m.ref())
		}
	}

	return out
}

// Get 返回规范路径为 path 的挂载（扁平化时可能有多个）。
func (s *Schema) Get(path string) []ConfigRef {
	var out []ConfigRef
	for _, m := range s.byPath[path] {
		if m.path == path {
			out = append(out, m.ref())
		}
	}

	return out
}

// Locate 返回 meta 的全部规范挂载路径。
func (s *Schema) Locate(meta *ConfigMetadata) []string {
	var out []string
	for _, m := range s.mounts {
		if m.meta == meta {
			out = appendUnique(out, m.path)
		}
	}

	return out
}

// Single 返回 meta 的唯一挂载，不存在或存在多个时报错。
func (s *Schema) Single(meta *ConfigMetadata) (ConfigRef, error) {
	var found []*mount
	for _, m := range s.mounts {
		if m.meta == meta {
			found = append(found, m)
		}
	}

	switch len(found) {
	case 0:
		return ConfigRef{}, fmt.Errorf("config `%s`: %w", meta.Name, ErrNotFound)
	case 1:
		return found[0].ref(), nil
	default:
		return ConfigRef{}, fmt.Errorf("config `%s` is mounted at %d paths", meta.Name, len(found))
	}
}

// ParamPaths 返回全部规范参数路径（不含别名），已排序。
func (s *Schema) ParamPaths() []string {
	var out []string
	for path, pm := range s.params {
		if pm.parent == pm.config.path && pm.name == pm.param.Name {
			out = append(out, path)
		}
	}
	slices.Sort(out)

	return out
}

// Param 返回挂载在 path（规范或别名路径）上的参数及其所属配置。
func (s *Schema) Param(path string) (*Param, ConfigRef, bool) {
	pm, ok := s.params[path]
	if !ok {
		return nil, ConfigRef{}, false
	}

	return pm.param, pm.config.ref(), true
}

func (s *Schema) isParamPath(path string) bool {
	_, ok := s.params[path]

	return ok
}

// paramMounts 返回全部参数位置，按路径排序。
func (s *Schema) paramMounts() []*paramMount {
	out := slices.Collect(maps.Values(s.params))
	slices.SortFunc(out, func(a, b *paramMount) int {
		if a.path < b.path {
			return -1
		}
		if a.path > b.path {
			return 1
		}
		return 0
	})

	return out
}

// lookup 返回规范路径为 path 且描述为 meta 的挂载。
func (s *Schema) lookup(path string, meta *ConfigMetadata) *mount {
	for _, m := range s.byPath[path] {
		if m.path == path && (meta == nil || m.meta == meta) {
			return m
		}
	}

	return nil
}
