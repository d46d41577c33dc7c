// Package cfgm 负责把文件、环境变量与 CLI flags 组装为 [cfgtree.Repository]。
//
// cfgtree 只处理值树与 schema，不做 I/O；本包负责查找与读取配置文件、
// 读取进程环境变量并绑定 urfave/cli 命令，再按优先级加入仓库。
//
// # 加载优先级 (从低到高)
//
//  1. 参数 fallback - 声明在 [cfgtree.Param] 上，例如 TMPDIR
//  2. 配置文件 - 通过 [WithConfigPaths] 或 [WithAppName] 设置
//  3. 环境变量(前缀) - 通过 [WithEnvPrefix] 启用
//  4. CLI flags - 通过 [WithCommand] 选项设置，最高优先级
//
// 默认值由解析阶段补齐，不作为来源出现。
//
// # 快速开始
//
// 用 [cfgtree.ConfigMetadata] 描述配置，然后一步加载并解析：
//
//	cfg, err := cfgm.LoadConfig[Config](ConfigMeta(),
//	    cfgm.WithAppName("myapp"),
//	    cfgm.WithEnvPrefix("MYAPP_"),
//	    cfgm.WithCommand(cmd),
//	)
//
// 需要多个挂载点或调试输出时，自行构建 schema 并使用 [Load]：
//
//	repo, err := cfgm.Load(schema, cfgm.WithEnvPrefix("MYAPP_"))
//	server, err := cfgtree.Parse[ServerConfig](repo, "server", serverMeta)
//
// # 配置文件路径
//
// [WithAppName] 会生成默认搜索路径（见 [DefaultPaths]）：
//   - .myapp.yaml (当前目录)
//   - ~/.myapp.yaml (用户主目录)
//   - /etc/myapp/config.yaml (系统配置)
//   - config.yaml, config/config.yaml (通用路径)
//
// 相对路径默认以项目根目录（go.mod 所在目录，见 [FindProjectRoot]）为基准。
//
// # 模板展开
//
// 配置文件的字符串值会进行 Shell 参数展开，使用 [WithoutTemplateExpansion] 可禁用。
// 展开在解析之后逐个叶子进行，值的来源链会记录这次变换：
//
//	# config.yaml
//	api_key: "${OPENAI_API_KEY}"
//	model: "${LLM_MODEL:-gpt-4}"
//
// # CLI Flag 映射
//
// 仅替换 "." 为 "-"（见 [FlagName]）：
//   - server.url → --server-url
//   - tls.skip_verify → --tls-skip_verify
//
// # 生成配置示例
//
// 使用 [ExampleYAML] 生成带注释的 YAML：
//
//	content, err := cfgm.ExampleYAML(schema)
//	os.WriteFile("config.example.yaml", content, 0644)
package cfgm
