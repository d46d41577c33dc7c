// Package value 提供带来源信息的配置值树。
//
// 每个节点 ([Node]) 由一个不可变的 [Value] 与其来源 ([Origin]) 组成，
// 来源以链表形式向上追溯，例如 "env 变量 X -> 作为参数 port 放入 test"。
//
// # 值模型
//
// [Value] 是类 JSON 的标签联合：null、bool、number、string、array、object。
// 构造后不可修改，所有 "修改" 操作都返回新值并共享未改变的子树。
//
// # 合并语义
//
// [Merge] 按优先级深度合并两棵树：
//   - 两侧都是 object 时按 key 递归合并，低优先级独有的 key 被保留
//   - 其余情况高优先级的值整体替换低优先级的值
//   - 高优先级 object 覆盖非 object 值后被标记为 sealed，不再继承更低层的 key
//
// sealed 标记保证合并满足结合律：无论如何对 [A, B, C] 分组，结果都相同。
//
// # 路径
//
// 路径使用 "." 分隔，空字符串表示根，见 [Join]、[Split]、[Node.Get]。
package value
