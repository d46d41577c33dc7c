package cfgtree_test

import (
	"fmt"
	"reflect"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

func serverMeta() *cfgtree.ConfigMetadata {
	return &cfgtree.ConfigMetadata{
		Name: "ServerConfig",
		Type: reflect.TypeFor[ServerConfig](),
		Params: []*cfgtree.Param{
			{
				Name:         "port",
				Deserializer: cfgtree.Int(),
				Default:      cfgtree.DefaultValue(3000),
				Validators:   []cfgtree.Validator{cfgtree.Range(1, 65535)},
			},
			{Name: "host", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("localhost")},
		},
	}
}

// Example_envOverridesFile 演示环境变量覆盖配置文件，并追溯值的来源。
func Example_envOverridesFile() {
	meta := serverMeta()
	schema := cfgtree.NewSchema()
	if err := schema.Insert(meta, "server"); err != nil {
		fmt.Println("挂载失败:", err)

		return
	}

	file, err := cfgtree.FromMap(value.FileOrigin("config.yaml", "yaml"), map[string]any{
		"server": map[string]any{"port": 4000},
	})
	if err != nil {
		fmt.Println("读取失败:", err)

		return
	}

	repo := cfgtree.NewRepository(schema, cfgtree.WithoutFallbacks()).
		Add(file).
		Add(cfgtree.Env("APP_", map[string]string{"APP_SERVER_PORT": "8000"}), cfgtree.WithPriority(10))

	cfg, err := cfgtree.Parse[ServerConfig](repo, "server", meta)
	if err != nil {
		fmt.Println("解析失败:", err)

		return
	}

	res, _ := repo.ResolveParam("server", meta.Params[0])
	fmt.Println("port:", cfg.Port)
	fmt.Println("host:", cfg.Host)
	fmt.Println("origin:", res.Node.Origin)

	// Output:
	// port: 8000
	// host: localhost
	// origin: env variable 'APP_SERVER_PORT' -> placed as param 'port' in 'server'
}

// Example_collectErrors 演示一次解析收集全部错误。
func Example_collectErrors() {
	meta := serverMeta()
	schema := cfgtree.NewSchema()
	_ = schema.Insert(meta, "server")

	file, _ := cfgtree.FromMap(value.FileOrigin("config.yaml", "yaml"), map[string]any{
		"server": map[string]any{"port": 70000, "host": []any{"a"}},
	})
	repo := cfgtree.NewRepository(schema, cfgtree.WithoutFallbacks()).Add(file)

	_, err := repo.Parse("server", meta)
	errs, _ := cfgtree.AsErrors(err)
	for _, e := range errs {
		fmt.Println(e.Path, e.Kind)
	}

	// Output:
	// server.port validation error
	// server.host invalid type
}
