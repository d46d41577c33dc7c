package cfgm

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
)

// 各层来源的默认优先级，数值越大越优先。
const (
	PriorityFile = 0
	PriorityEnv  = 100
	PriorityFlag = 200
)

// options 配置加载选项。
type options struct {
	appName             string // 应用名称，用于生成默认配置路径
	cmd                 *cli.Command
	configPaths         []string
	baseDir             string // 路径基准目录，用于将相对路径转换为绝对路径
	baseDirSet          bool   // 是否显式设置了 baseDir（区分空字符串和未设置）
	envPrefix           string
	environ             []string // nil 表示 os.Environ()
	noTemplateExpansion bool     // 是否禁用配置文件模板展开（默认启用）
	noFallbacks         bool
	callerSkip          int // FindProjectRoot 的调用栈跳过层数（0 表示使用默认值）
	extra               []extraSource
}

type extraSource struct {
	src      cfgtree.Source
	priority int
}

// Option 配置加载选项函数。
type Option func(*options)

// WithCommand 绑定 CLI 命令，读取显式设置的 flags 作为最高优先级来源。
func WithCommand(cmd *cli.Command) Option {
	return func(o *options) {
		o.cmd = cmd
	}
}

// WithAppName 设置应用名称，用于生成默认搜索路径（见 [DefaultPaths]）。
//
// 示例：
//
//	cfgm.Load(schema,
//	    cfgm.WithAppName("myapp"),  // 自动搜索 .myapp.yaml 等
//	    cfgm.WithCommand(cmd),
//	)
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

// WithConfigPaths 设置配置文件搜索路径。
//
// 按顺序查找，命中首个文件即停止；相对路径会基于 [WithBaseDir] 解析。
func WithConfigPaths(paths ...string) Option {
	return func(o *options) {
		o.configPaths = paths
	}
}

// WithBaseDir 设置配置路径的解析基准。
//
// 默认基准为项目根目录（go.mod 所在目录）；空字符串表示当前工作目录。
// 注意：绝对路径不受影响。
func WithBaseDir(path string) Option {
	return func(o *options) {
		o.baseDir = path
		o.baseDirSet = true
	}
}

// WithCallerSkip 设置 [FindProjectRoot] 的调用栈跳过层数。
//
// 当 [Load] 被多层封装时，用于修正项目根目录定位。
// 若已通过 [WithBaseDir] 指定基准目录，则该选项不会生效。
//
// 示例：
//
//	// 在封装函数中使用
//	func LoadMyRepo(schema *cfgtree.Schema) (*cfgtree.Repository, error) {
//	    return cfgm.Load(schema,
//	        cfgm.WithCallerSkip(2),  // 跳过: Load → LoadMyRepo
//	    )
//	}
//
// 注意：
//   - 默认值根据入口函数自动确定（Load 系列: 1, LoadConfig 系列: 2）
//   - 每增加一层封装，skip 值需要相应增大
func WithCallerSkip(skip int) Option {
	return func(o *options) {
		o.callerSkip = skip
	}
}

// WithEnvPrefix 启用环境变量来源。
//
// 环境变量按 schema 还原层级：
//   - 去掉前缀（大小写不敏感），剩余部分转为小写
//   - 与参数路径比较时，点号 (.) 和连字符 (-) 视为下划线 (_)
//
// 示例 (前缀为 "MYAPP_")：
//   - MYAPP_DEBUG → debug
//   - MYAPP_SERVER_URL → server.url
//   - MYAPP_SERVER_LABELS_TEAM → server.labels 中的 team（object 参数）
//
// 未匹配任何参数的变量会被忽略。
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithEnviron 使用给定的 "KEY=value" 列表代替 os.Environ()。
//
// 该列表同时用于环境变量来源、模板展开与参数 fallback。
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithoutTemplateExpansion 禁用配置文件的模板展开。
//
// 默认会执行 Shell 参数展开（如 ${VAR:-default}）。
// 该选项会保留原始 ${...} 字符串。
func WithoutTemplateExpansion() Option {
	return func(o *options) {
		o.noTemplateExpansion = true
	}
}

// WithoutFallbacks 不使用参数声明的 fallback。
func WithoutFallbacks() Option {
	return func(o *options) {
		o.noFallbacks = true
	}
}

// WithSource 追加一个自定义来源。
func WithSource(src cfgtree.Source, priority int) Option {
	return func(o *options) {
		o.extra = append(o.extra, extraSource{src: src, priority: priority})
	}
}
