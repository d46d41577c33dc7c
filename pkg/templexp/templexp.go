package templexp

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

// ErrRequired 由 ${VAR:?msg} / ${VAR?msg} 在变量缺失时返回。
var ErrRequired = errors.New("required variable")

// RequiredError 描述一次必填校验失败。
type RequiredError struct {
	Name    string
	Message string
}

func (e *RequiredError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("templexp: %s: parameter null or not set", e.Name)
	}

	return fmt.Sprintf("templexp: %s: %s", e.Name, e.Message)
}

func (e *RequiredError) Is(target error) bool { return target == ErrRequired }

// ═══════════════════════════════════════════════════════════════════════════
// Expander
// ═══════════════════════════════════════════════════════════════════════════

// Expander 持有一份变量快照，":=" 的赋值只写入这份快照。
//
// Expander 不是并发安全的。
type Expander struct {
	vars map[string]string
}

// New 基于给定变量创建 Expander，vars 会被复制。
func New(vars map[string]string) *Expander {
	if vars == nil {
		vars = map[string]string{}
	}

	return &Expander{vars: maps.Clone(vars)}
}

// FromEnviron 基于 "KEY=value" 形式的列表创建 Expander。
func FromEnviron(environ []string) *Expander {
	return New(env.ToMap(environ))
}

// FromOS 基于当前进程环境变量创建 Expander。
func FromOS() *Expander {
	return FromEnviron(os.Environ())
}

// Expand 对 text 执行 Shell 参数展开。
//
// 支持语法：
//   - ${VAR} - 变量替换
//   - ${VAR:-default} / ${VAR-default} - fallback
//   - ${VAR:+alt} / ${VAR+alt} - 替代值
//   - ${VAR:?msg} / ${VAR?msg} - 必填校验
//   - ${VAR:=default} / ${VAR=default} - 赋值（仅作用于当前 Expander）
//
// 仅在必填校验失败时返回 error，可用 errors.Is(err, [ErrRequired]) 判断。
func (e *Expander) Expand(text string) (string, error) {
	if !needsExpansion(text) {
		return text, nil
	}

	var buf strings.Builder
	buf.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '$' || i+1 >= len(text) {
			buf.WriteByte(text[i])
			i++
			continue
		}

		switch text[i+1] {
		case '$':
			buf.WriteByte('$')
			i += 2
			continue
		case '{':
		default:
			buf.WriteByte('$')
			i++
			continue
		}

		end := matchingBrace(text, i+2)
		if end == -1 {
			buf.WriteByte('$')
			i++
			continue
		}

		expanded, ok, err := e.expression(text[i+2 : end])
		if err != nil {
			return "", err
		}
		if ok {
			buf.WriteString(expanded)
		} else {
			buf.WriteString(text[i : end+1])
		}
		i = end + 1
	}

	return buf.String(), nil
}

// ExpandNode 展开树中所有字符串叶子。
//
// 被修改的叶子在来源链上追加一次变换，secret 标记保持不变。
// 第一个失败的叶子中止展开，错误中带有其路径。
func (e *Expander) ExpandNode(node value.Node) (value.Node, error) {
	return e.expandNode(node, "")
}

func (e *Expander) expandNode(node value.Node, at string) (value.Node, error) {
	switch node.Value.Kind() {
	case value.KindString:
		text, _ := node.Value.AsString()
		expanded, err := e.Expand(text)
		if err != nil {
			return node, fmt.Errorf("expanding %s: %w", describe(at), err)
		}
		if expanded == text {
			return node, nil
		}
		v := value.String(expanded)
		if node.Value.IsSecret() {
			v = v.AsSecret()
		}
		return value.NewNode(v, node.Origin.Transform("shell parameter expansion")), nil

	case value.KindArray:
		items := node.Value.Items()
		for i, item := range items {
			expanded, err := e.expandNode(item, value.Join(at, fmt.Sprint(i)))
			if err != nil {
				return node, err
			}
			items[i] = expanded
		}
		return value.NewNode(value.Array(items...), node.Origin), nil

	case value.KindObject:
		fields := node.Value.Fields()
		for key, child := range fields {
			expanded, err := e.expandNode(child, value.Join(at, key))
			if err != nil {
				return node, err
			}
			fields[key] = expanded
		}
		return value.NewNode(value.Object(fields), node.Origin), nil
	}

	return node, nil
}

func describe(path string) string {
	if path == "" {
		return "root value"
	}

	return fmt.Sprintf("value at '%s'", path)
}

// ExpandTemplate 使用当前进程环境变量展开 text。
func ExpandTemplate(text string) (string, error) {
	return FromOS().Expand(text)
}

// ═══════════════════════════════════════════════════════════════════════════
// Shell Parameter Expansion
// ═══════════════════════════════════════════════════════════════════════════

func needsExpansion(text string) bool {
	return strings.Contains(text, "${") || strings.Contains(text, "$$")
}

func isNameStart(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '_'
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || (ch >= '0' && ch <= '9')
}

// splitExpression 将 "NAME:-word" 拆为 name、操作符与 word。
func splitExpression(expr string) (name, op, word string, ok bool) {
	if expr == "" || !isNameStart(expr[0]) {
		return "", "", "", false
	}

	i := 1
	for i < len(expr) && isNameChar(expr[i]) {
		i++
	}
	name, rest := expr[:i], expr[i:]
	if rest == "" {
		return name, "", "", true
	}

	if len(rest) >= 2 && rest[0] == ':' && strings.IndexByte("-+?=", rest[1]) >= 0 {
		return name, rest[:2], rest[2:], true
	}
	if strings.IndexByte("-+?=", rest[0]) >= 0 {
		return name, rest[:1], rest[1:], true
	}

	return "", "", "", false
}

func (e *Expander) expression(expr string) (string, bool, error) {
	name, op, word, ok := splitExpression(expr)
	if !ok {
		return "", false, nil
	}

	val, isSet := e.vars[name]
	// 带冒号的操作符把空值视为未设置
	unset := !isSet
	if strings.HasPrefix(op, ":") {
		unset = !isSet || val == ""
	}

	switch strings.TrimPrefix(op, ":") {
	case "":
		return val, true, nil
	case "-":
		if unset {
			return e.word(word)
		}
		return val, true, nil
	case "+":
		if !unset {
			return e.word(word)
		}
		return "", true, nil
	case "?":
		if unset {
			return "", false, &RequiredError{Name: name, Message: word}
		}
		return val, true, nil
	case "=":
		if unset {
			expanded, ok, err := e.word(word)
			if err != nil {
				return "", false, err
			}
			e.vars[name] = expanded
			return expanded, ok, nil
		}
		return val, true, nil
	}

	return "", false, nil
}

func (e *Expander) word(word string) (string, bool, error) {
	expanded, err := e.Expand(word)
	if err != nil {
		return "", false, err
	}

	return expanded, true, nil
}

func matchingBrace(text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		if text[i] == '$' && i+1 < len(text) && text[i+1] == '{' {
			depth++
			i++
			continue
		}
		if text[i] == '}' {
			if depth == 0 {
				return i
			}
			depth--
		}
	}

	return -1
}
