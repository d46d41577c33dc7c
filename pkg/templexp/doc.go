// Package templexp 提供配置值的 Shell 参数展开。
//
// 该包仅处理 ${...} 语法，在配置文件解析为值树之后、合并之前对字符串叶子做轻量替换。
// 不执行命令、不引入模板引擎。
//
// # 设计参考
//
//   - Bash 参数展开: https://www.gnu.org/software/bash/manual/bash.html#Shell-Parameter-Expansion
//
// # 语义说明
//
//  1. 仅做字符串层面的替换（不解析 $VAR）
//  2. 支持嵌套展开与 "$$" 字面量
//  3. ":=" 赋值只写入 [Expander] 自己的变量快照
//  4. 无法识别的表达式保持原样
//  5. 被展开的叶子在来源链上记录一次变换
//
// # 快速开始
//
//	exp := templexp.FromOS()
//	model, err := exp.Expand(`${LLM_MODEL:-gpt-4}`)
//
// 展开整棵值树：
//
//	tree, err = templexp.FromOS().ExpandNode(tree)
package templexp
