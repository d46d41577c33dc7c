package cfgtree

import (
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// ParamStatus 参数在一次解析中的状态。
type ParamStatus uint8

const (
	// StatusUnset 参数未被解析，例如所属配置的标签无效，无法选出变体。
	StatusUnset ParamStatus = iota
	// StatusSet 值来自某个来源。
	StatusSet
	// StatusDefault 使用默认值或默认变体。
	StatusDefault
	// StatusFiltered 值被过滤器视为缺失。
	StatusFiltered
	// StatusError 解析或校验失败。
	StatusError
)

func (s ParamStatus) String() string {
	switch s {
	case StatusSet:
		return "set"
	case StatusDefault:
		return "default"
	case StatusFiltered:
		return "filtered"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// ParamInfo 单个参数的调试信息。
type ParamInfo struct {
	// Path 规范参数路径。
	Path   string
	Config string
	Param  *Param
	// Raw 原始值，未找到时为 nil。
	Raw    *value.Node
	Origin *value.Origin
	// FoundAt 值实际所在的路径，可能是别名路径。
	FoundAt string
	// Deprecated 值通过废弃别名提供。
	Deprecated bool
	Status     ParamStatus
	Errors     []*Error
	// Conditions 参数生效所需的标签条件。
	Conditions []string
}

func (i *ParamInfo) setResolved(res Resolved) {
	node := res.Node
	i.Raw = &node
	i.Origin = node.Origin
	i.FoundAt = res.Path
	i.Deprecated = res.Deprecated
}

// RawString 返回原始值的文本，secret 会被脱敏。
func (i ParamInfo) RawString() string {
	if i.Raw == nil {
		return ""
	}

	return i.Raw.Value.String()
}

// Debug 解析 schema 中所有根配置，返回每个生效参数的调试信息与全部错误。
//
// 未被选中的变体中的参数不会出现在结果中；
// 标签失败时，公共参数仍以 [StatusUnset] 出现，Raw 为找到的原始值。
func (r *Repository) Debug() ([]ParamInfo, Errors) {
	p := r.newParser()
	p.tracing = true
	for _, m := range r.schema.mounts {
		if m.root {
			p.config(frame{paths: m.paths(), meta: m.meta})
		}
	}

	return p.trace, p.errs
}
