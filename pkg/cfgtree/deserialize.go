package cfgtree

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// parser 一次解析的上下文：来源快照、累积的错误与可选的调试记录。
//
// 解析不会在第一个错误处停止，同一层的所有参数都会被尝试。
type parser struct {
	sources []*sourceEntry
	merged  value.Node
	errs    Errors

	// tracing 为 true 时记录每个参数的解析过程
	tracing bool
	trace   []ParamInfo

	// export 为 true 时同时生成规范形式的输出
	export      bool
	placeholder string
}

func (r *Repository) newParser() *parser {
	sources := r.ordered()

	return &parser{
		sources: sources,
		merged:  mergeSources(sources, r.schema),
	}
}

type frame struct {
	// paths[0] 为规范路径，其余为别名路径
	paths      []string
	meta       *ConfigMetadata
	conditions []string
}

type parsed struct {
	// typed 解码后的值；配置未设置 Type 时为字段 map
	typed  any
	fields map[string]any
	export map[string]any
}

func (p *parser) fail(e *Error, info *ParamInfo) {
	p.errs = append(p.errs, e)
	if info != nil {
		info.Errors = append(info.Errors, e)
		info.Status = StatusError
	}
}

func (p *parser) record(info *ParamInfo) {
	if p.tracing {
		p.trace = append(p.trace, *info)
	}
}

// config 解析一层配置；返回 false 时错误已记录在 p.errs 中。
func (p *parser) config(f frame) (parsed, bool) {
	before := len(p.errs)
	out := parsed{fields: make(map[string]any)}
	if p.export {
		out.export = make(map[string]any)
	}

	var variant *Variant
	if f.meta.Tag != nil {
		var ok bool
		if variant, ok = p.variant(f, &out); !ok {
			p.skip(f, false)
			return parsed{}, false
		}
	}

	for _, param := range f.meta.Params {
		p.param(f, param, f.conditions, &out)
	}
	for _, nested := range f.meta.Nested {
		p.nested(f, nested, f.conditions, &out)
	}
	if variant != nil {
		tagPath := value.Join(f.paths[0], f.meta.Tag.Param.Name)
		conditions := append(slices.Clone(f.conditions), fmt.Sprintf("%s == '%s'", tagPath, variant.Name))
		for _, param := range variant.Params {
			p.param(f, param, conditions, &out)
		}
		for _, nested := range variant.Nested {
			p.nested(f, nested, conditions, &out)
		}
	}

	if len(p.errs) > before {
		return parsed{}, false
	}

	out.typed = out.fields
	if f.meta.Type != nil {
		typed, err := decodeInto(f.meta.Type, out.fields)
		if err != nil {
			p.fail(&Error{
				Kind:       KindDeserialization,
				Path:       f.paths[0],
				Config:     f.meta.Name,
				Conditions: f.conditions,
				Err:        err,
			}, nil)
			return parsed{}, false
		}
		out.typed = typed
	}

	for _, validator := range f.meta.Validators {
		if err := validator.Validate(out.typed); err != nil {
			p.fail(&Error{
				Kind:       KindValidation,
				Path:       f.paths[0],
				Config:     f.meta.Name,
				Conditions: f.conditions,
				Rule:       validator.Describe(),
				Message:    fmt.Sprintf("config does not satisfy `%s`: %v", validator.Describe(), err),
				Err:        err,
			}, nil)
		}
	}
	if len(p.errs) > before {
		return parsed{}, false
	}

	return out, true
}

// skip 为无法解析的配置记录 StatusUnset 的调试信息。
//
// 变体未选出时只记录公共参数与公共嵌套配置，withTag 控制是否包含标签参数本身。
func (p *parser) skip(f frame, withTag bool) {
	if !p.tracing {
		return
	}

	params := f.meta.Params
	if withTag && f.meta.Tag != nil {
		params = append([]*Param{f.meta.Tag.Param}, params...)
	}
	for _, param := range params {
		info := ParamInfo{
			Path:       value.Join(f.paths[0], param.Name),
			Config:     f.meta.Name,
			Param:      param,
			Conditions: f.conditions,
		}
		if res, found := resolveParam(p.sources, f.paths, param); found {
			info.setResolved(res)
		}
		p.trace = append(p.trace, info)
	}

	for _, nested := range f.meta.Nested {
		p.skip(frame{paths: nestedPaths(f.paths, nested), meta: nested.Meta, conditions: f.conditions}, true)
	}
}

func tagDeserializer(param *Param) Deserializer {
	if param.Deserializer != nil {
		return param.Deserializer
	}

	return String()
}

// variant 解析标签并选出变体。
func (p *parser) variant(f frame, out *parsed) (*Variant, bool) {
	meta := f.meta
	tp := meta.Tag.Param
	info := &ParamInfo{
		Path:       value.Join(f.paths[0], tp.Name),
		Config:     meta.Name,
		Param:      tp,
		Conditions: f.conditions,
	}
	defer p.record(info)
	newErr := func(kind ErrorKind, origin *value.Origin) *Error {
		return &Error{Kind: kind, Path: info.Path, Config: meta.Name, Param: tp.Name, Origin: origin, Conditions: f.conditions}
	}

	res, found := resolveParam(p.sources, f.paths, tp)
	var tag string
	switch {
	case found && !res.Node.Value.IsNull():
		info.setResolved(res)
		p.warnDeprecated(info.Path, res)
		raw, err := tagDeserializer(tp).Deserialize(res.Node)
		if err != nil {
			e := newErr(classify(err), res.Node.Origin)
			e.Err = err
			p.fail(e, info)
			return nil, false
		}
		tag = fmt.Sprint(raw)
		info.Status = StatusSet
	case meta.DefaultVariant() != nil:
		tag = meta.DefaultVariant().Name
		info.Status = StatusDefault
	case tp.Default != nil:
		tag = fmt.Sprint(tp.Default())
		info.Status = StatusDefault
	default:
		e := newErr(KindMissingField, nil)
		e.Message = fmt.Sprintf("missing tag `%s`, expected one of %s", tp.Name, quoteList(meta.tagValues()))
		p.fail(e, info)
		return nil, false
	}

	variant := meta.Variant(tag)
	if variant == nil {
		e := newErr(KindUnknownVariant, info.Origin)
		e.Message = fmt.Sprintf("unknown variant `%s`, expected one of %s", tag, quoteList(meta.tagValues()))
		p.fail(e, info)
		return nil, false
	}

	out.fields[tp.FieldName()] = variant.Name
	if p.export {
		out.export[tp.Name] = variant.Name
	}

	return variant, true
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "`" + v + "`"
	}

	return strings.Join(quoted, ", ")
}

func (p *parser) warnDeprecated(path string, res Resolved) {
	if res.Deprecated {
		slog.Warn("Config param is set via deprecated alias",
			"param", path, "alias", res.Path, "origin", res.Node.Origin.String())
	}
}

// param 解析单个参数：取值、反序列化、默认值与校验。
func (p *parser) param(f frame, param *Param, conditions []string, out *parsed) {
	info := &ParamInfo{
		Path:       value.Join(f.paths[0], param.Name),
		Config:     f.meta.Name,
		Param:      param,
		Conditions: conditions,
	}
	defer p.record(info)
	newErr := func(kind ErrorKind) *Error {
		return &Error{
			Kind:       kind,
			Path:       info.Path,
			Config:     f.meta.Name,
			Param:      param.Name,
			Origin:     info.Origin,
			Conditions: conditions,
		}
	}

	res, found := resolveParam(p.sources, f.paths, param)
	if found {
		info.setResolved(res)
		p.warnDeprecated(info.Path, res)
	}

	var v any
	switch {
	case found && !res.Node.Value.IsNull():
		typed, err := param.Deserializer.Deserialize(res.Node)
		if err != nil {
			e := newErr(classify(err))
			e.Err = err
			p.fail(e, info)
			return
		}
		v = typed
		info.Status = StatusSet
	case param.Default != nil:
		v = param.Default()
		info.Status = StatusDefault
	default:
		e := newErr(KindMissingField)
		e.Message = fmt.Sprintf("missing field `%s`", param.Name)
		p.fail(e, info)
		return
	}

	for _, validator := range param.Validators {
		if v == nil {
			break
		}
		err := validator.Validate(v)
		if err == nil {
			continue
		}
		if isFilter(validator) {
			v = nil
			if param.Default != nil && info.Status == StatusSet {
				v = param.Default()
			}
			info.Status = StatusFiltered
			break
		}
		e := newErr(KindValidation)
		e.Rule = validator.Describe()
		e.Message = fmt.Sprintf("value does not satisfy `%s`: %v", validator.Describe(), err)
		e.Err = err
		p.fail(e, info)
		return
	}

	out.fields[param.FieldName()] = v
	if p.export && v != nil {
		raw, err := serialize(param.Deserializer, v)
		if err != nil {
			slog.Debug("Skip param in canonical output", "param", info.Path, "error", err)
			return
		}
		out.export[param.Name] = raw.Interface(p.placeholder)
	}
}

// present 报告合并树中任一路径下是否有非 null 值。
func (p *parser) present(paths []string) bool {
	for _, path := range paths {
		if node, ok := p.merged.Get(path); ok && !node.Value.IsNull() {
			return true
		}
	}

	return false
}

func (p *parser) nested(f frame, nested *Nested, conditions []string, out *parsed) {
	paths := nestedPaths(f.paths, nested)
	if nested.Optional && !nested.Flattened() && !p.present(paths) {
		out.fields[nested.FieldName()] = nil
		return
	}

	child, ok := p.config(frame{paths: paths, meta: nested.Meta, conditions: conditions})
	if !ok {
		return
	}

	if nested.Flattened() && nested.Field == "" {
		maps.Copy(out.fields, child.fields)
	} else {
		out.fields[nested.FieldName()] = child.typed
	}

	if p.export {
		if nested.Flattened() {
			maps.Copy(out.export, child.export)
		} else {
			out.export[nested.Name] = child.export
		}
	}
}
