package value

import (
	"maps"
	"strconv"
	"strings"
)

// Join 用 "." 拼接路径段，忽略空段。
func Join(parts ...string) string {
	var sb strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}

	return sb.String()
}

// Split 拆分路径，空路径返回 nil。
func Split(path string) []string {
	if path == "" {
		return nil
	}

	return strings.Split(path, ".")
}

// SplitLast 拆出最后一段，例如 "a.b.c" → ("a.b", "c")。
func SplitLast(path string) (string, string) {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}

	return "", path
}

// Ancestors 返回 path 的所有祖先（不含根与自身），由浅到深。
func Ancestors(path string) []string {
	segments := Split(path)
	if len(segments) < 2 {
		return nil
	}
	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, strings.Join(segments[:i], "."))
	}

	return out
}

// Get 按路径取子节点；数组可用数字下标。
func (n Node) Get(path string) (Node, bool) {
	cur := n
	for _, segment := range Split(path) {
		switch cur.Value.kind {
		case KindObject:
			next, ok := cur.Value.obj[segment]
			if !ok {
				return Node{}, false
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(cur.Value.arr) {
				return Node{}, false
			}
			cur = cur.Value.arr[idx]
		default:
			return Node{}, false
		}
	}

	return cur, true
}

// BlockedAt 返回 path 上第一个阻断查找的非 object 祖先（含 path 本身之前的所有前缀）。
//
// 例如树为 {a: 5}，BlockedAt("a.b") 返回 ("a", true)。
func (n Node) BlockedAt(path string) (string, bool) {
	cur := n
	segments := Split(path)
	for i, segment := range segments {
		if cur.Value.kind != KindObject {
			return strings.Join(segments[:i], "."), true
		}
		next, ok := cur.Value.obj[segment]
		if !ok {
			return "", false
		}
		cur = next
	}

	return "", false
}

// With 返回在 path 处放置 child 后的新树，缺失或非 object 的中间节点会以 parentOrigin 创建为空 object。
//
// 原树不会被修改。
func (n Node) With(path string, child Node, parentOrigin func(path string) *Origin) Node {
	segments := Split(path)
	if len(segments) == 0 {
		return child
	}

	return n.with(segments, 0, child, parentOrigin)
}

func (n Node) with(segments []string, depth int, child Node, parentOrigin func(string) *Origin) Node {
	var fields map[string]Node
	if n.Value.kind == KindObject {
		fields = maps.Clone(n.Value.obj)
	} else {
		fields = make(map[string]Node, 1)
		if parentOrigin != nil {
			n.Origin = parentOrigin(strings.Join(segments[:depth], "."))
		}
	}

	key := segments[depth]
	if depth == len(segments)-1 {
		fields[key] = child
	} else {
		fields[key] = fields[key].with(segments, depth+1, child, parentOrigin)
	}

	return Node{Value: Value{kind: KindObject, obj: fields, sealed: n.Value.sealed}, Origin: n.Origin}
}

// Walk 深度优先遍历（object key 排序），fn 返回 false 时不再进入该节点的子节点。
func (n Node) Walk(fn func(path string, node Node) bool) {
	n.walk("", fn)
}

func (n Node) walk(at string, fn func(string, Node) bool) {
	if !fn(at, n) {
		return
	}

	switch n.Value.kind {
	case KindObject:
		for _, key := range n.Value.Keys() {
			n.Value.obj[key].walk(Join(at, key), fn)
		}
	case KindArray:
		for i, item := range n.Value.arr {
			item.walk(Join(at, strconv.Itoa(i)), fn)
		}
	}
}
