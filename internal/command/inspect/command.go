// Package inspect 提供配置检查命令：逐参数展示取值与来源，或输出规范化后的配置。
package inspect

import (
	"github.com/urfave/cli/v3"
)

// Command 配置检查命令
var Command = &cli.Command{
	Name:   "inspect",
	Usage:  "检查配置的取值与来源",
	Action: action,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "table",
			Usage:   "输出格式 (table, yaml, example)",
		},
		&cli.BoolFlag{
			Name:  "secrets",
			Usage: "在 yaml 输出中保留 secret 原文",
		},
	},
}
