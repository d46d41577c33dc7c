package cfgtree_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/secret"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

type TestConfig struct {
	Port     int               `json:"port"`
	Host     string            `json:"host"`
	Timeout  time.Duration     `json:"timeout"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Password *secret.String    `json:"password"`
	TempDir  string            `json:"temp_dir"`
}

var portParam = &cfgtree.Param{
	Name: "port",
	Aliases: []cfgtree.Alias{
		{Name: "listen_port"},
		{Name: "old_port", Deprecated: true},
	},
	Deserializer: cfgtree.Int(),
	Default:      cfgtree.DefaultValue(3000),
	Validators:   []cfgtree.Validator{cfgtree.Range(1, 65535)},
}

func newTestMeta() *cfgtree.ConfigMetadata {
	return &cfgtree.ConfigMetadata{
		Name: "TestConfig",
		Type: reflect.TypeFor[TestConfig](),
		Params: []*cfgtree.Param{
			portParam,
			{Name: "host", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("localhost")},
			{Name: "timeout", Deserializer: cfgtree.Duration(), Default: cfgtree.DefaultValue(30 * time.Second)},
			{Name: "tags", Deserializer: cfgtree.List[string](cfgtree.String()), Default: cfgtree.DefaultFunc(func() []string { return []string{} })},
			{Name: "labels", Deserializer: cfgtree.Map[string](cfgtree.String()), Default: cfgtree.DefaultFunc(func() map[string]string { return map[string]string{} })},
			{Name: "password", Deserializer: cfgtree.Secret(), Default: cfgtree.Optional},
			{Name: "temp_dir", Deserializer: cfgtree.String(), Fallback: cfgtree.EnvFallback("TMPDIR"), Default: cfgtree.DefaultValue("/tmp")},
		},
	}
}

type StorageConfig struct {
	Type       string `json:"type"`
	Path       string `json:"path"`
	BucketName string `json:"bucket_name"`
	Region     string `json:"region"`
}

func newStorageMeta() *cfgtree.ConfigMetadata {
	bucket := func() *cfgtree.Param {
		return &cfgtree.Param{Name: "bucket_name", Aliases: []cfgtree.Alias{{Name: "bucket"}}, Deserializer: cfgtree.String()}
	}

	return &cfgtree.ConfigMetadata{
		Name: "StorageConfig",
		Type: reflect.TypeFor[StorageConfig](),
		Tag: &cfgtree.Tag{
			Param: &cfgtree.Param{Name: "type", Aliases: []cfgtree.Alias{{Name: "kind"}}},
			Variants: []*cfgtree.Variant{
				{
					Name:    "local",
					Default: true,
					Params:  []*cfgtree.Param{{Name: "path", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("/var/lib/data")}},
				},
				{Name: "gcs", Params: []*cfgtree.Param{bucket()}},
				{
					Name:    "s3",
					Aliases: []string{"aws"},
					Params: []*cfgtree.Param{
						bucket(),
						{Name: "region", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("us-east-1")},
					},
				},
			},
		},
	}
}

type FeatureConfig struct {
	Mode    string         `json:"mode"`
	Storage *StorageConfig `json:"storage"`
}

func newFeatureMeta(storage *cfgtree.ConfigMetadata) *cfgtree.ConfigMetadata {
	return &cfgtree.ConfigMetadata{
		Name: "FeatureConfig",
		Type: reflect.TypeFor[FeatureConfig](),
		Tag: &cfgtree.Tag{
			Param: &cfgtree.Param{Name: "mode"},
			Variants: []*cfgtree.Variant{
				{Name: "disabled", Default: true},
				{Name: "enabled", Nested: []*cfgtree.Nested{{Name: "storage", Meta: storage}}},
			},
		},
	}
}

func fileSource(t *testing.T, name string, raw map[string]any) cfgtree.Source {
	t.Helper()
	src, err := cfgtree.FromMap(value.FileOrigin(name, "yaml"), raw)
	require.NoError(t, err)

	return src
}

func noEnv(string) (string, bool) { return "", false }

func newRepo(t *testing.T, schema *cfgtree.Schema) *cfgtree.Repository {
	t.Helper()

	return cfgtree.NewRepository(schema, cfgtree.WithLookupEnv(noEnv))
}

func mustSchema(t *testing.T, mounts map[string]*cfgtree.ConfigMetadata) *cfgtree.Schema {
	t.Helper()
	schema := cfgtree.NewSchema()
	for path, meta := range mounts {
		require.NoError(t, schema.Insert(meta, path))
	}

	return schema
}
