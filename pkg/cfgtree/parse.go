package cfgtree

import (
	"fmt"
	"log/slog"
	"strings"

	"dario.cat/mergo"
)

// Parse 解析挂载在 path 的配置 meta。
//
// 成功时返回完整的值（设置了 Type 时为该类型，否则为字段 map）；
// 失败时返回 [Errors]，包含本次解析发现的全部错误，二者不会同时出现。
func (r *Repository) Parse(path string, meta *ConfigMetadata) (any, error) {
	m := r.schema.lookup(path, meta)
	if m == nil {
		return nil, fmt.Errorf("config `%s` at `%s`: %w", meta.Name, path, ErrNotFound)
	}

	p := r.newParser()
	out, ok := p.config(frame{paths: m.paths(), meta: meta})
	if !ok {
		return nil, p.errs
	}

	return out.typed, nil
}

// Parse 解析挂载在 path 的配置并转换为 T。
//
// 示例：
//
//	cfg, err := cfgtree.Parse[ServerConfig](repo, "server", ServerMeta)
func Parse[T any](r *Repository, path string, meta *ConfigMetadata) (T, error) {
	var zero T
	out, err := r.Parse(path, meta)
	if err != nil {
		return zero, err
	}

	switch typed := out.(type) {
	case T:
		return typed, nil
	case map[string]any:
		var cfg T
		if err := decodeMap(typed, &cfg); err != nil {
			return zero, fmt.Errorf("decode config `%s` at `%s`: %w", meta.Name, path, err)
		}
		return cfg, nil
	default:
		return zero, fmt.Errorf("config `%s` at `%s` parsed as %T", meta.Name, path, out)
	}
}

// ParseSingle 解析在 schema 中只挂载了一次的配置。
func ParseSingle[T any](r *Repository, meta *ConfigMetadata) (T, error) {
	ref, err := r.schema.Single(meta)
	if err != nil {
		var zero T
		return zero, err
	}

	return Parse[T](r, ref.Path, meta)
}

// MustParse 调用 [Parse] 并在失败时 panic，适合启动阶段。
func MustParse[T any](r *Repository, path string, meta *ConfigMetadata) T {
	cfg, err := Parse[T](r, path, meta)
	if err != nil {
		panic(fmt.Sprintf("cfgtree: failed to parse config: %v", err))
	}

	return cfg
}

// Canonicalize 解析所有根配置并输出规范形式：只使用规范名、展开默认值、标签使用规范值。
//
// secret 值替换为 placeholder（为空时输出明文）。只缺少必填参数的配置会被跳过。
func (r *Repository) Canonicalize(placeholder string) (map[string]any, error) {
	out := make(map[string]any)
	var errs Errors

	for _, m := range r.schema.mounts {
		if !m.root {
			continue
		}

		p := r.newParser()
		p.export = true
		p.placeholder = placeholder
		res, ok := p.config(frame{paths: m.paths(), meta: m.meta})
		if !ok {
			if len(p.errs.ByKind(KindMissingField)) == len(p.errs) {
				slog.Debug("Skip config with missing params in canonical output", "config", m.meta.Name, "path", m.path)
				continue
			}
			errs = append(errs, p.errs...)
			continue
		}

		wrapped := res.export
		if m.path != "" {
			wrapped = make(map[string]any)
			setByPath(wrapped, m.path, res.export)
		}
		if err := mergo.Merge(&out, wrapped, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge canonical config `%s` at `%s`: %w", m.meta.Name, m.path, err)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return out, nil
}

func setByPath(dst map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	current := dst
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = v

			return
		}

		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
}
