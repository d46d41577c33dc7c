package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/internal/command"
	"github.com/lwmacct/261019-go-pkg-cfgtree/internal/command/inspect"
	"github.com/lwmacct/261019-go-pkg-cfgtree/internal/command/server"
)

func main() {
	app := &cli.Command{
		Name:  command.AppName,
		Usage: "分层配置工具",
		Commands: []*cli.Command{
			inspect.Command,
			server.Command,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
