package value

// Merge 将 override（高优先级）深度合并到 base（低优先级）之上，返回新树。
//
// 规则：
//   - 两侧都是 object：按 key 递归合并，结果来源取 override 的来源
//   - override 不是 object：整体替换
//   - override 是 object 而 base 不是：结果为 sealed 的 override，之后不再继承更低层
//   - override 是 sealed object：整体替换
func Merge(base, override Node) Node {
	return MergeGuided(base, override, "", nil)
}

// MergeGuided 与 [Merge] 相同，但 isLeaf(path) 为 true 的路径始终整体替换。
//
// 用于参数本身就是 object（例如 map 参数）的情况：参数值不应跨来源逐 key 合并。
func MergeGuided(base, override Node, at string, isLeaf func(path string) bool) Node {
	if isLeaf != nil && at != "" && isLeaf(at) {
		return override
	}
	if override.Value.kind != KindObject {
		return override
	}
	if base.Value.kind != KindObject {
		if override.Value.sealed {
			return override
		}
		sealed := override
		sealed.Value.sealed = true
		return sealed
	}
	if override.Value.sealed {
		return override
	}

	fields := make(map[string]Node, len(base.Value.obj)+len(override.Value.obj))
	for key, node := range base.Value.obj {
		fields[key] = node
	}
	for key, node := range override.Value.obj {
		if existing, ok := fields[key]; ok {
			fields[key] = MergeGuided(existing, node, Join(at, key), isLeaf)
			continue
		}
		fields[key] = node
	}

	return Node{
		Value:  Value{kind: KindObject, obj: fields, sealed: base.Value.sealed},
		Origin: override.Origin,
	}
}

// MergeAll 按优先级从低到高依次合并。
func MergeAll(nodes ...Node) Node {
	if len(nodes) == 0 {
		return Node{Value: Object(nil)}
	}
	merged := nodes[0]
	for _, node := range nodes[1:] {
		merged = Merge(merged, node)
	}

	return merged
}
