// Package config 提供应用配置管理。
//
// 配置加载优先级 (从低到高)：
//  1. 默认值与 fallback - 声明在 Meta() 的参数描述中
//  2. 配置文件 - 通过 WithAppName / WithConfigPaths 选项设置
//  3. 环境变量 - 通过 WithEnvPrefix 选项启用
//  4. CLI flags - 通过 WithCommand 选项设置
package config

import (
	"reflect"
	"time"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/secret"
)

// Config 应用配置。
type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	Redis   RedisConfig   `json:"redis"`
	Feature FeatureConfig `json:"feature"`
}

// ServerConfig 服务端配置。
type ServerConfig struct {
	Addr     string        `json:"addr"`
	Docs     string        `json:"docs"`
	Timeout  time.Duration `json:"timeout"`
	Idletime time.Duration `json:"idletime"`
	MaxBody  uint64        `json:"max_body"`
}

// StorageConfig 存储后端，由 type 选择变体。
type StorageConfig struct {
	Type       string `json:"type"`
	Path       string `json:"path"`
	BucketName string `json:"bucket_name"`
	Region     string `json:"region"`
}

// RedisConfig Redis 配置。
type RedisConfig struct {
	URL          string         `json:"url"`
	Password     *secret.String `json:"password"`
	Prefix       string         `json:"prefix"`
	MaxLen       int64          `json:"max_len"`
	DialTimeout  time.Duration  `json:"dial_timeout"`
	ReadTimeout  time.Duration  `json:"read_timeout"`
	WriteTimeout time.Duration  `json:"write_timeout"`
	Disabled     bool           `json:"disabled"`
}

// FeatureConfig 导出功能开关，启用时需要自己的存储。
type FeatureConfig struct {
	Mode    string         `json:"mode"`
	Storage *StorageConfig `json:"storage"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 元数据
// ═══════════════════════════════════════════════════════════════════════════

func serverMeta() *cfgtree.ConfigMetadata {
	return &cfgtree.ConfigMetadata{
		Name: "ServerConfig",
		Help: "服务端配置",
		Type: reflect.TypeFor[ServerConfig](),
		Params: []*cfgtree.Param{
			{
				Name:         "addr",
				Aliases:      []cfgtree.Alias{{Name: "listen", Deprecated: true}},
				Help:         "服务器监听地址",
				Deserializer: cfgtree.String(),
				Default:      cfgtree.DefaultValue(":40117"),
				Validators:   []cfgtree.Validator{cfgtree.NotEmpty()},
			},
			{Name: "docs", Help: "VitePress 文档目录路径", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("docs/.vitepress/dist")},
			{Name: "timeout", Help: "HTTP 读写超时", Deserializer: cfgtree.Duration(), Default: cfgtree.DefaultValue(15 * time.Second)},
			{
				Name:         "idletime",
				Aliases:      []cfgtree.Alias{{Name: "idle_timeout"}},
				Help:         "HTTP 空闲超时",
				Deserializer: cfgtree.Duration(),
				Default:      cfgtree.DefaultValue(60 * time.Second),
			},
			{
				Name:         "max_body",
				Help:         "请求体大小上限",
				Deserializer: cfgtree.ByteSize(),
				Default:      cfgtree.DefaultValue(uint64(1 << 20)),
				Validators:   []cfgtree.Validator{cfgtree.Min(uint64(1))},
			},
		},
	}
}

func storageMeta() *cfgtree.ConfigMetadata {
	bucket := func() *cfgtree.Param {
		return &cfgtree.Param{
			Name:         "bucket_name",
			Aliases:      []cfgtree.Alias{{Name: "bucket"}},
			Help:         "存储桶名称",
			Deserializer: cfgtree.String(),
			Validators:   []cfgtree.Validator{cfgtree.NotEmpty()},
		}
	}

	return &cfgtree.ConfigMetadata{
		Name: "StorageConfig",
		Help: "存储后端",
		Type: reflect.TypeFor[StorageConfig](),
		Tag: &cfgtree.Tag{
			Param: &cfgtree.Param{Name: "type", Aliases: []cfgtree.Alias{{Name: "kind", Deprecated: true}}, Help: "存储类型"},
			Variants: []*cfgtree.Variant{
				{
					Name:    "local",
					Help:    "本地目录",
					Default: true,
					Params: []*cfgtree.Param{
						{Name: "path", Help: "数据目录", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("/var/lib/cfgtree")},
					},
				},
				{Name: "gcs", Help: "Google Cloud Storage", Params: []*cfgtree.Param{bucket()}},
				{
					Name:    "s3",
					Aliases: []string{"aws"},
					Help:    "Amazon S3",
					Params: []*cfgtree.Param{
						bucket(),
						{Name: "region", Help: "区域", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("us-east-1")},
					},
				},
			},
		},
	}
}

func redisMeta() *cfgtree.ConfigMetadata {
	return &cfgtree.ConfigMetadata{
		Name: "RedisConfig",
		Help: "Redis 配置",
		Type: reflect.TypeFor[RedisConfig](),
		Params: []*cfgtree.Param{
			{
				Name:         "url",
				Help:         "Redis URL",
				Deserializer: cfgtree.String(),
				Fallback:     cfgtree.EnvFallback("REDIS_URL"),
				Default:      cfgtree.DefaultValue("redis://localhost:6379/0"),
			},
			{
				Name:         "password",
				Help:         "Redis 密码",
				Deserializer: cfgtree.Secret(),
				Fallback:     cfgtree.EnvFallback("REDISCLI_AUTH"),
				Default:      cfgtree.Optional,
			},
			{Name: "prefix", Help: "Redis key 前缀", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("")},
			{
				Name:         "max_len",
				Aliases:      []cfgtree.Alias{{Name: "max-len", Deprecated: true}},
				Help:         "日志最大长度",
				Deserializer: cfgtree.Integer[int64](),
				Default:      cfgtree.DefaultValue(int64(10000)),
				Validators:   []cfgtree.Validator{cfgtree.Min(int64(0))},
			},
			{Name: "dial_timeout", Help: "连接超时", Deserializer: cfgtree.Duration(), Default: cfgtree.DefaultValue(5 * time.Second)},
			{Name: "read_timeout", Help: "读超时", Deserializer: cfgtree.Duration(), Default: cfgtree.DefaultValue(3 * time.Second)},
			{Name: "write_timeout", Help: "写超时", Deserializer: cfgtree.Duration(), Default: cfgtree.DefaultValue(3 * time.Second)},
			{Name: "disabled", Help: "禁用 Redis", Deserializer: cfgtree.Bool(), Default: cfgtree.DefaultValue(false)},
		},
	}
}

func featureMeta() *cfgtree.ConfigMetadata {
	return &cfgtree.ConfigMetadata{
		Name: "FeatureConfig",
		Help: "导出功能",
		Type: reflect.TypeFor[FeatureConfig](),
		Tag: &cfgtree.Tag{
			Param: &cfgtree.Param{Name: "mode", Help: "disabled 或 enabled"},
			Variants: []*cfgtree.Variant{
				{Name: "disabled", Default: true},
				{Name: "enabled", Nested: []*cfgtree.Nested{{Name: "storage", Meta: storageMeta()}}},
			},
		},
	}
}

var meta = &cfgtree.ConfigMetadata{
	Name: "Config",
	Type: reflect.TypeFor[Config](),
	Nested: []*cfgtree.Nested{
		{Name: "server", Meta: serverMeta()},
		{Name: "storage", Meta: storageMeta()},
		{Name: "redis", Meta: redisMeta()},
		{Name: "feature", Meta: featureMeta()},
	},
}

// Meta 返回根配置的描述，挂载在根路径。
func Meta() *cfgtree.ConfigMetadata { return meta }

// Schema 返回挂载了 [Meta] 的 schema。
func Schema() *cfgtree.Schema {
	schema := cfgtree.NewSchema()
	if err := schema.Insert(meta, ""); err != nil {
		panic(err)
	}

	return schema
}

// DefaultConfig 返回仅由默认值构成的配置。
// 注意：internal/command/command.go 中的 Defaults 变量引用此函数以实现单一配置来源。
func DefaultConfig() Config {
	repo := cfgtree.NewRepository(Schema(), cfgtree.WithoutFallbacks())

	return cfgtree.MustParse[Config](repo, "", meta)
}
