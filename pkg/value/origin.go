package value

import (
	"fmt"
	"strings"
)

// OriginKind 来源节点类型。
type OriginKind uint8

const (
	// OriginUnknown 未知来源。
	OriginUnknown OriginKind = iota
	// OriginFile 配置文件。
	OriginFile
	// OriginEnvVar 单个环境变量。
	OriginEnvVar
	// OriginFlag 单个命令行 flag。
	OriginFlag
	// OriginSynthetic 合成来源（fallback、默认值等），name 为原因描述。
	OriginSynthetic
	// OriginPath 父来源中的某个路径。
	OriginPath
	// OriginTransform 对父来源做的一次变换（嵌套、别名复制等）。
	OriginTransform
)

// Origin 描述一个值从哪里来。
//
// Origin 构造后只读，可以被任意多个值共享；parent 只用于回溯，不表达所有权。
// nil *Origin 等价于未知来源。
type Origin struct {
	kind   OriginKind
	name   string
	format string
	parent *Origin
}

// FileOrigin 创建文件来源，format 为 "YAML"、"JSON" 等（可为空）。
func FileOrigin(name, format string) *Origin {
	return &Origin{kind: OriginFile, name: name, format: format}
}

// EnvVarOrigin 创建环境变量来源。
func EnvVarOrigin(name string) *Origin {
	return &Origin{kind: OriginEnvVar, name: name}
}

// FlagOrigin 创建命令行 flag 来源，name 不带 "--"。
func FlagOrigin(name string) *Origin {
	return &Origin{kind: OriginFlag, name: name}
}

// SyntheticOrigin 创建合成来源，reason 为可读描述。
func SyntheticOrigin(reason string) *Origin {
	return &Origin{kind: OriginSynthetic, name: reason}
}

// Path 返回指向当前来源内 path 位置的子来源。
func (o *Origin) Path(path string) *Origin {
	if path == "" {
		return o
	}

	return &Origin{kind: OriginPath, name: path, parent: o}
}

// Transform 返回记录了一次变换的子来源。
func (o *Origin) Transform(description string) *Origin {
	return &Origin{kind: OriginTransform, name: description, parent: o}
}

// Kind 返回来源类型。
func (o *Origin) Kind() OriginKind {
	if o == nil {
		return OriginUnknown
	}

	return o.kind
}

// Name 返回文件名、变量名、路径或变换描述，取决于 [Origin.Kind]。
func (o *Origin) Name() string {
	if o == nil {
		return ""
	}

	return o.name
}

// Parent 返回父来源，根来源返回 nil。
func (o *Origin) Parent() *Origin {
	if o == nil {
		return nil
	}

	return o.parent
}

// Root 沿 parent 链回溯到根来源。
func (o *Origin) Root() *Origin {
	cur := o
	for cur != nil && cur.parent != nil {
		cur = cur.parent
	}

	return cur
}

// Chain 从根到当前节点返回完整来源链。
func (o *Origin) Chain() []*Origin {
	var chain []*Origin
	for cur := o; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain
}

func (o *Origin) String() string {
	if o == nil {
		return "unknown"
	}

	switch o.kind {
	case OriginFile:
		if o.format == "" {
			return fmt.Sprintf("file '%s'", o.name)
		}
		return fmt.Sprintf("%s file '%s'", strings.ToUpper(o.format), o.name)
	case OriginEnvVar:
		return fmt.Sprintf("env variable '%s'", o.name)
	case OriginFlag:
		return fmt.Sprintf("command-line flag '--%s'", o.name)
	case OriginSynthetic:
		return o.name
	case OriginPath:
		return fmt.Sprintf("%s -> path '%s'", o.parent, o.name)
	case OriginTransform:
		return fmt.Sprintf("%s -> %s", o.parent, o.name)
	default:
		return "unknown"
	}
}
