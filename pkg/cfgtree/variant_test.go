package cfgtree_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
)

func TestVariant_RequiredOnlyWhenSelected(t *testing.T) {
	meta := newStorageMeta()
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"storage": meta})

	t.Run("local", func(t *testing.T) {
		repo := newRepo(t, schema).Add(fileSource(t, "a.yaml", map[string]any{"storage": map[string]any{"type": "local"}}))
		cfg, err := cfgtree.Parse[StorageConfig](repo, "storage", meta)
		require.NoError(t, err)
		assert.Equal(t, StorageConfig{Type: "local", Path: "/var/lib/data"}, cfg)
	})

	t.Run("gcs without bucket", func(t *testing.T) {
		repo := newRepo(t, schema).Add(fileSource(t, "a.yaml", map[string]any{"storage": map[string]any{"type": "gcs"}}))
		_, err := repo.Parse("storage", meta)
		errs, ok := cfgtree.AsErrors(err)
		require.True(t, ok)
		require.Len(t, errs, 1)
		assert.Equal(t, cfgtree.KindMissingField, errs[0].Kind)
		assert.Equal(t, "storage.bucket_name", errs[0].Path)
		assert.Equal(t, []string{"storage.type == 'gcs'"}, errs[0].Conditions)
	})

	t.Run("tag alias and param alias", func(t *testing.T) {
		repo := newRepo(t, schema).Add(fileSource(t, "a.yaml", map[string]any{
			"storage": map[string]any{"kind": "aws", "bucket": "logs"},
		}))
		cfg, err := cfgtree.Parse[StorageConfig](repo, "storage", meta)
		require.NoError(t, err)
		assert.Equal(t, StorageConfig{Type: "s3", BucketName: "logs", Region: "us-east-1"}, cfg)
	})

	t.Run("default variant when tag is absent", func(t *testing.T) {
		cfg, err := cfgtree.Parse[StorageConfig](newRepo(t, schema), "storage", meta)
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Type)
	})
}

func TestVariant_Unknown(t *testing.T) {
	meta := newStorageMeta()
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"storage": meta})
	repo := newRepo(t, schema).Add(fileSource(t, "a.yaml", map[string]any{
		"storage": map[string]any{"type": "S3", "bucket_name": "x"},
	}))

	_, err := repo.Parse("storage", meta)
	require.ErrorIs(t, err, cfgtree.ErrUnknownVariant)

	errs, _ := cfgtree.AsErrors(err)
	require.Len(t, errs, 1, "variant selection aborts the config")
	assert.Equal(t, "storage.type", errs[0].Path)
	assert.Contains(t, errs[0].Message, "`local`, `gcs`, `s3`")
	assert.Equal(t, "YAML file 'a.yaml' -> path 'storage.type'", errs[0].Origin.String())
}

func TestVariant_MissingTagWithoutDefault(t *testing.T) {
	meta := &cfgtree.ConfigMetadata{
		Name: "Mode",
		Tag: &cfgtree.Tag{
			Param:    &cfgtree.Param{Name: "mode"},
			Variants: []*cfgtree.Variant{{Name: "a"}, {Name: "b"}},
		},
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"mode": meta})

	_, err := newRepo(t, schema).Parse("mode", meta)
	require.ErrorIs(t, err, cfgtree.ErrMissingField)
}

func TestVariant_MultiLevelConditions(t *testing.T) {
	storage := newStorageMeta()
	feature := newFeatureMeta(storage)
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"feature": feature})

	t.Run("disabled by default", func(t *testing.T) {
		cfg, err := cfgtree.Parse[FeatureConfig](newRepo(t, schema), "feature", feature)
		require.NoError(t, err)
		assert.Equal(t, FeatureConfig{Mode: "disabled"}, cfg)
	})

	t.Run("enabled with s3 and no bucket", func(t *testing.T) {
		repo := newRepo(t, schema).Add(cfgtree.Env("APP", map[string]string{
			"APP_FEATURE_MODE":         "enabled",
			"APP_FEATURE_STORAGE_TYPE": "s3",
		}))
		_, err := repo.Parse("feature", feature)
		errs, ok := cfgtree.AsErrors(err)
		require.True(t, ok)
		require.Len(t, errs, 1)
		assert.Equal(t, "feature.storage.bucket_name", errs[0].Path)
		assert.Equal(t, []string{"feature.mode == 'enabled'", "feature.storage.type == 's3'"}, errs[0].Conditions)
		assert.Contains(t, errs[0].Error(), "(when feature.mode == 'enabled' && feature.storage.type == 's3')")
	})

	t.Run("enabled with s3", func(t *testing.T) {
		repo := newRepo(t, schema).Add(cfgtree.Env("APP", map[string]string{
			"APP_FEATURE_MODE":                "enabled",
			"APP_FEATURE_STORAGE_TYPE":        "s3",
			"APP_FEATURE_STORAGE_BUCKET_NAME": "logs",
		}))
		cfg, err := cfgtree.Parse[FeatureConfig](repo, "feature", feature)
		require.NoError(t, err)
		require.NotNil(t, cfg.Storage)
		assert.Equal(t, "logs", cfg.Storage.BucketName)
	})
}

type LogConfig struct {
	LevelConfig
	Name string `json:"name"`
}

type LevelConfig struct {
	Level string `json:"level"`
}

func TestNested_FlattenedAndOptional(t *testing.T) {
	inner := &cfgtree.ConfigMetadata{
		Name:   "Inner",
		Params: []*cfgtree.Param{{Name: "level", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("info")}},
	}
	outer := &cfgtree.ConfigMetadata{
		Name:   "Outer",
		Type:   reflect.TypeFor[LogConfig](),
		Params: []*cfgtree.Param{{Name: "name", Deserializer: cfgtree.String()}},
		Nested: []*cfgtree.Nested{{Meta: inner}},
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"log": outer})
	repo := newRepo(t, schema).Add(fileSource(t, "a.yaml", map[string]any{"log": map[string]any{"name": "x", "level": "debug"}}))

	cfg, err := cfgtree.Parse[LogConfig](repo, "log", outer)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "x", cfg.Name)

	holder := &cfgtree.ConfigMetadata{
		Name:   "Holder",
		Nested: []*cfgtree.Nested{{Name: "storage", Meta: newStorageMeta(), Optional: true}},
	}
	schema = mustSchema(t, map[string]*cfgtree.ConfigMetadata{"holder": holder})
	out, err := newRepo(t, schema).Parse("holder", holder)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"storage": nil}, out)
}

func TestConfigValidator_AttributedToConfigPath(t *testing.T) {
	meta := newStorageMeta()
	meta.Validators = []cfgtree.ConfigValidator{
		cfgtree.ConfigCheck("bucket must not equal region", func(cfg *StorageConfig) error {
			if cfg.BucketName != "" && cfg.BucketName == cfg.Region {
				return assert.AnError
			}
			return nil
		}),
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"storage": meta})
	repo := newRepo(t, schema).Add(fileSource(t, "a.yaml", map[string]any{
		"storage": map[string]any{"type": "s3", "bucket_name": "eu", "region": "eu"},
	}))

	_, err := repo.Parse("storage", meta)
	errs, ok := cfgtree.AsErrors(err)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, cfgtree.KindValidation, errs[0].Kind)
	assert.Equal(t, "storage", errs[0].Path)
	assert.Empty(t, errs[0].Param)
	assert.Equal(t, "bucket must not equal region", errs[0].Rule)
}
