package cfgtree

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// LookupEnv 与 os.LookupEnv 签名一致，测试中可替换。
type LookupEnv func(key string) (string, bool)

// Fallback 参数级后备值，在仓库创建时求值，优先级低于所有来源。
type Fallback struct {
	// Description 可读描述，供调试输出使用。
	Description string
	provide     func(lookup LookupEnv) (value.Node, bool)
}

// EnvFallback 以指定环境变量的值作为后备，例如 TMPDIR。
func EnvFallback(name string) *Fallback {
	return &Fallback{
		Description: fmt.Sprintf("env variable '%s'", name),
		provide: func(lookup LookupEnv) (value.Node, bool) {
			v, ok := lookup(name)
			if !ok {
				return value.Node{}, false
			}
			return value.NewNode(value.String(v), value.EnvVarOrigin(name)), true
		},
	}
}

// FuncFallback 以自定义函数的返回值作为后备，fn 返回 false 表示不提供。
func FuncFallback(description string, fn func() (any, bool)) *Fallback {
	return &Fallback{
		Description: description,
		provide: func(LookupEnv) (value.Node, bool) {
			raw, ok := fn()
			if !ok {
				return value.Node{}, false
			}
			node, err := value.FromAny(raw, value.SyntheticOrigin(description))
			if err != nil {
				slog.Warn("Ignoring fallback value", "fallback", description, "error", err)
				return value.Node{}, false
			}
			return node, true
		},
	}
}

// Provide 求值后备；lookup 为 nil 时使用 os.LookupEnv。
func (f *Fallback) Provide(lookup LookupEnv) (value.Node, bool) {
	if f == nil || f.provide == nil {
		return value.Node{}, false
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	return f.provide(lookup)
}

// fallbackTree 收集 schema 中全部后备值，写到各参数的规范路径上。
func fallbackTree(schema *Schema, lookup LookupEnv) (value.Node, int) {
	origin := value.SyntheticOrigin("fallbacks")
	root := value.NewNode(value.Object(nil), origin)
	count := 0

	for _, m := range schema.mounts {
		for _, p := range m.meta.AllParams() {
			node, ok := p.Fallback.Provide(lookup)
			if !ok {
				continue
			}
			node.Origin = node.Origin.Transform(fmt.Sprintf("fallback for `%s.%s`", m.meta.Name, p.Name))
			path := value.Join(m.path, p.Name)
			root = root.With(path, node, func(path string) *value.Origin { return origin.Path(path) })
			count++
		}
	}

	return root, count
}
