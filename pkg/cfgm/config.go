package cfgm

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/templexp"
)

// ErrNoProjectRoot 调用位置向上找不到 go.mod。
var ErrNoProjectRoot = errors.New("project root not found")

// DefaultPaths 返回默认配置文件的搜索顺序。
//
// appName 可选，提供后会追加应用专属路径。
// 返回顺序即查找顺序，先命中的文件生效。
//
// 优先级 (从高到低)：
//  1. ./.appname.yaml - 当前目录应用配置
//  2. ~/.appname.yaml - 用户主目录配置
//  3. /etc/appname/config.yaml - 系统级配置
//  4. config.yaml - 当前目录通用配置
//  5. config/config.yaml - 子目录通用配置
func DefaultPaths(appName ...string) []string {
	var paths []string

	if len(appName) > 0 && appName[0] != "" {
		name := appName[0]
		paths = append(paths, "."+name+".yaml")
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, "."+name+".yaml"))
		}
		paths = append(paths, "/etc/"+name+"/config.yaml")
	}

	paths = append(paths, "config.yaml", "config/config.yaml")

	return paths
}

// FindProjectRoot 从调用位置所在源文件的目录向上查找 go.mod，返回其所在目录。
//
// skip 为 0 表示 FindProjectRoot 的直接调用者。
// 源码目录不存在（例如部署后的二进制）时返回 [ErrNoProjectRoot]。
func FindProjectRoot(skip int) (string, error) {
	_, file, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", ErrNoProjectRoot
	}

	dir := filepath.Dir(file)
	for {
		if info, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched upwards from %s", ErrNoProjectRoot, filepath.Dir(file))
		}
		dir = parent
	}
}

// Load 按优先级组装配置仓库。
//
// 优先级 (从低到高)：
//  1. 参数 fallback - 声明在 [cfgtree.Param] 上
//  2. 配置文件 - [WithConfigPaths] / [WithAppName]
//  3. 环境变量(前缀) - [WithEnvPrefix]
//  4. CLI flags - [WithCommand]
//
// 默认值不作为来源加入，由解析阶段补齐。
// 配置文件按顺序查找，命中首个文件即停止。
func Load(schema *cfgtree.Schema, opts ...Option) (*cfgtree.Repository, error) {
	return load(schema, 1, opts...)
}

// load 是内部加载实现，callerSkip 为 load 与用户代码之间的调用层数。
func load(schema *cfgtree.Schema, callerSkip int, opts ...Option) (*cfgtree.Repository, error) {
	options := &options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.callerSkip > 0 {
		callerSkip = options.callerSkip
	}

	// 默认使用项目根目录作为相对路径基准
	if !options.baseDirSet {
		if root, err := FindProjectRoot(callerSkip + 1); err == nil {
			options.baseDir = root
		}
	}

	if len(options.configPaths) == 0 {
		options.configPaths = DefaultPaths(options.appName)
	}

	environ := options.environ
	if environ == nil {
		environ = os.Environ()
	}
	vars := env.ToMap(environ)

	repoOpts := []cfgtree.Option{cfgtree.WithLookupEnv(func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})}
	if options.noFallbacks {
		repoOpts = append(repoOpts, cfgtree.WithoutFallbacks())
	}
	repo := cfgtree.NewRepository(schema, repoOpts...)

	// 1️⃣ 配置文件 (按顺序搜索，找到第一个即停止)
	var expander *templexp.Expander
	if !options.noTemplateExpansion {
		expander = templexp.New(vars)
	}
	path, src, err := findConfigFile(resolvePaths(options.baseDir, options.configPaths), expander)
	if err != nil {
		return nil, err
	}
	if src != nil {
		repo.Add(src, cfgtree.WithPriority(PriorityFile))
		slog.Debug("Loaded config from file", "path", path, "templateExpansion", expander != nil)
	} else {
		slog.Debug("No config file found, using defaults")
	}

	// 2️⃣ 环境变量
	if options.envPrefix != "" {
		repo.Add(cfgtree.Env(options.envPrefix, vars), cfgtree.WithPriority(PriorityEnv))
	}

	// 3️⃣ CLI flags (最高优先级，仅当用户明确指定时)
	if options.cmd != nil {
		repo.Add(FlagSource(options.cmd), cfgtree.WithPriority(PriorityFlag))
	}

	for _, extra := range options.extra {
		repo.Add(extra.src, cfgtree.WithPriority(extra.priority))
	}

	return repo, nil
}

func resolvePaths(baseDir string, paths []string) []string {
	if baseDir == "" {
		return paths
	}

	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(baseDir, p)
		}
	}

	return out
}

// findConfigFile 返回第一个存在的配置文件；全部不存在时 src 为 nil。
func findConfigFile(paths []string, expander *templexp.Expander) (string, cfgtree.Source, error) {
	for _, path := range paths {
		content, err := os.ReadFile(path) //nolint:gosec // path is from trusted config
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return path, nil, fmt.Errorf("read config file %s: %w", path, err)
		}

		src, err := FileSource(path, content, expander)
		if err != nil {
			return path, nil, err
		}

		return path, src, nil
	}

	return "", nil, nil
}

// LoadCmd 是 [Load] 的便捷版本，适用于 CLI 场景。
//
// 它会注入 [WithCommand]，appName 非空时额外注入 [WithAppName]。
func LoadCmd(cmd *cli.Command, schema *cfgtree.Schema, appName string, opts ...Option) (*cfgtree.Repository, error) {
	return load(schema, 1, append(cmdOptions(cmd, appName), opts...)...)
}

// MustLoad 调用 [Load] 并在失败时 panic，适合启动阶段。
func MustLoad(schema *cfgtree.Schema, opts ...Option) *cfgtree.Repository {
	repo, err := load(schema, 1, opts...)
	if err != nil {
		panic(fmt.Sprintf("cfgm: failed to load config: %v", err))
	}

	return repo
}

// MustLoadCmd 调用 [LoadCmd] 并在失败时 panic，适合启动阶段。
func MustLoadCmd(cmd *cli.Command, schema *cfgtree.Schema, appName string, opts ...Option) *cfgtree.Repository {
	repo, err := load(schema, 1, append(cmdOptions(cmd, appName), opts...)...)
	if err != nil {
		panic(fmt.Sprintf("cfgm: failed to load config: %v", err))
	}

	return repo
}

func cmdOptions(cmd *cli.Command, appName string) []Option {
	opts := []Option{WithCommand(cmd)}
	if appName != "" {
		opts = append(opts, WithAppName(appName))
	}

	return opts
}

// LoadConfig 把 meta 挂到根路径，加载来源并解析为 *T。
//
// 解析错误以 [cfgtree.Errors] 返回，包含全部出错参数。
//
// 示例：
//
//	cfg, err := cfgm.LoadConfig[config.Config](config.Meta(),
//	    cfgm.WithAppName("myapp"),
//	    cfgm.WithEnvPrefix("MYAPP_"),
//	    cfgm.WithCommand(cmd),
//	)
func LoadConfig[T any](meta *cfgtree.ConfigMetadata, opts ...Option) (*T, error) {
	cfg, _, err := loadConfig[T](meta, 2, opts...)

	return cfg, err
}

// LoadConfigRepo 与 [LoadConfig] 相同，额外返回仓库用于调试输出。
func LoadConfigRepo[T any](meta *cfgtree.ConfigMetadata, opts ...Option) (*T, *cfgtree.Repository, error) {
	return loadConfig[T](meta, 2, opts...)
}

// MustLoadConfig 调用 [LoadConfig] 并在失败时 panic。
func MustLoadConfig[T any](meta *cfgtree.ConfigMetadata, opts ...Option) *T {
	cfg, _, err := loadConfig[T](meta, 2, opts...)
	if err != nil {
		panic(fmt.Sprintf("cfgm: failed to load config: %v", err))
	}

	return cfg
}

func loadConfig[T any](meta *cfgtree.ConfigMetadata, callerSkip int, opts ...Option) (*T, *cfgtree.Repository, error) {
	schema := cfgtree.NewSchema()
	if err := schema.Insert(meta, ""); err != nil {
		return nil, nil, err
	}

	repo, err := load(schema, callerSkip, opts...)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := cfgtree.Parse[T](repo, "", meta)
	if err != nil {
		return nil, repo, err
	}

	return &cfg, repo, nil
}
