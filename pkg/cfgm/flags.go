package cfgm

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

type flagSource struct {
	cmd *cli.Command
}

// FlagSource 将用户显式设置的 CLI flags 作为来源。
//
// flag 名称由参数路径生成，仅替换 "." 为 "-"：
//   - server.url → --server-url
//   - tls.skip_verify → --tls-skip_verify
//
// 未定义或未显式设置的 flag 被忽略；flag 的值保持其 Go 类型写入值树。
func FlagSource(cmd *cli.Command) cfgtree.Source {
	return flagSource{cmd: cmd}
}

func (s flagSource) Origin() *value.Origin {
	return value.SyntheticOrigin("command-line flags")
}

func (s flagSource) Tree(schema *cfgtree.Schema) value.Node {
	origin := s.Origin()
	root := value.NewNode(value.Object(nil), origin)
	parentOrigin := func(path string) *value.Origin { return origin.Path(path) }

	for _, path := range schema.ParamPaths() {
		name := FlagName(path)
		if !s.cmd.IsSet(name) {
			continue
		}

		node, err := value.FromAny(flagValue(s.cmd.Value(name)), value.FlagOrigin(name))
		if err != nil {
			slog.Warn("Ignoring command-line flag", "flag", name, "error", err)
			continue
		}
		root = root.With(path, node, parentOrigin)
	}

	return root
}

// FlagName 返回参数路径对应的 CLI flag 名称。
func FlagName(path string) string {
	return strings.ReplaceAll(path, ".", "-")
}

// flagValue 把 flag 的切片与 map 值展开为 []any / map[string]any。
func flagValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = flagValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprintf("%v", iter.Key().Interface())] = flagValue(iter.Value().Interface())
		}
		return out
	default:
		return v
	}
}
