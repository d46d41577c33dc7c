// Package cfgtree 合并多个分层配置来源，并按描述将结果反序列化为类型化配置。
//
// # 核心概念
//
//   - [ConfigMetadata] / [Param] / [Nested] / [Tag]：以数据形式描述配置结构
//   - [Schema]：记录配置挂载在值树中的位置，插入时检测冲突
//   - [Source]：来源适配器，结构化文件、环境变量、后备值
//   - [Repository]：按优先级合并来源，提供解析、查询与调试
//
// # 优先级
//
// 来源按 [WithPriority] 从低到高合并，同优先级时后添加的来源优先。
// 参数后备值（[Param.Fallback]）的优先级低于所有来源。
//
// object 与 object 深度合并；其他情况高优先级整体替换。
// 参数本身是 object 时（例如 map 参数）也整体替换。
//
// # 别名
//
// 解析参数时，从最高优先级来源开始查找，同一来源内依次尝试
// 规范名、当前别名、废弃别名；第一个定义了任一名称的来源胜出。
// 使用废弃别名会输出 slog 告警。
//
// # 环境变量
//
// [Env] 根据 schema 把扁平的 APP_TEST_PORT 还原为 test.port：
//
//	repo := cfgtree.NewRepository(schema).
//	    Add(fileSource).
//	    Add(cfgtree.Env("APP", env.ToMap(os.Environ())))
//
// # 错误
//
// 解析不会在第一个错误处停止，返回的 [Errors] 包含全部错误，
// 每个错误带有路径、来源与标签条件，可通过 errors.Is 判断类别：
//
//	if errors.Is(err, cfgtree.ErrMissingField) { ... }
package cfgtree
