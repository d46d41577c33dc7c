// Package command 提供服务端与配置检查的命令行功能。
package command

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/internal/config"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgm"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
)

// AppName 应用名称，用于默认配置路径 (.cfgtree.yaml 等)。
const AppName = "cfgtree"

// EnvPrefix 环境变量前缀。
const EnvPrefix = "CFGTREE_"

// Defaults 为默认配置的单一来源。
var Defaults = config.DefaultConfig()

// Load 按 默认值 → 配置文件 → 环境变量 → CLI flags 组装仓库。
func Load(cmd *cli.Command) (*cfgtree.Repository, error) {
	return cfgm.LoadCmd(cmd, config.Schema(), AppName,
		cfgm.WithEnvPrefix(EnvPrefix),
		cfgm.WithCallerSkip(2),
	)
}
