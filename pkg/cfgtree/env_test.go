package cfgtree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
)

func TestEnv_Nesting(t *testing.T) {
	meta := newTestMeta()
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"test": meta})

	tests := []struct {
		name string
		vars map[string]string
		path string
		want string
	}{
		{
			name: "canonical name",
			vars: map[string]string{"APP_TEST_HOST": "h"},
			path: "test.host",
			want: `"h"`,
		},
		{
			name: "prefix is case-insensitive",
			vars: map[string]string{"app_test_host": "h"},
			path: "test.host",
			want: `"h"`,
		},
		{
			name: "alias name",
			vars: map[string]string{"APP_TEST_LISTEN_PORT": "81"},
			path: "test.listen_port",
			want: `"81"`,
		},
		{
			name: "object param keys",
			vars: map[string]string{"APP_TEST_LABELS_TEAM": "core", "APP_TEST_LABELS_TIER": "1"},
			path: "test.labels",
			want: `{"team": "core", "tier": "1"}`,
		},
		{
			name: "indexed array",
			vars: map[string]string{"APP_TEST_TAGS_1": "b", "APP_TEST_TAGS_0": "a"},
			path: "test.tags",
			want: `["a", "b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := cfgtree.Env("APP_", tt.vars).Tree(schema)
			node, ok := tree.Get(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, node.Value.String())
		})
	}
}

func TestEnv_IgnoresUnknownAndGaps(t *testing.T) {
	meta := newTestMeta()
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"test": meta})

	tree := cfgtree.Env("APP", map[string]string{
		"APP_TEST_UNKNOWN": "x",
		"OTHER_TEST_HOST":  "x",
		"APP_TEST_TAGS_0":  "a",
		"APP_TEST_TAGS_2":  "c",
		"APP_":             "x",
	}).Tree(schema)

	assert.Equal(t, 0, tree.Value.Len())
}

func TestEnv_ParsedThroughRepository(t *testing.T) {
	meta := newTestMeta()
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"test": meta})

	repo := newRepo(t, schema).Add(cfgtree.Env("APP", map[string]string{
		"APP_TEST_TAGS":        "a, b ,c",
		"APP_TEST_LABELS_TEAM": "core",
		"APP_TEST_TIMEOUT":     "5 minutes",
	}))

	cfg, err := cfgtree.Parse[TestConfig](repo, "test", meta)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, map[string]string{"team": "core"}, cfg.Labels)
	assert.Equal(t, "5m0s", cfg.Timeout.String())
}

func TestEnv_ConfigAliasPath(t *testing.T) {
	child := &cfgtree.ConfigMetadata{
		Name:   "Child",
		Params: []*cfgtree.Param{{Name: "value", Deserializer: cfgtree.Int()}},
	}
	parent := &cfgtree.ConfigMetadata{
		Name:   "Parent",
		Nested: []*cfgtree.Nested{{Name: "child", Aliases: []cfgtree.Alias{{Name: "kid", Deprecated: true}}, Meta: child}},
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"app": parent})

	repo := newRepo(t, schema).Add(cfgtree.Env("APP", map[string]string{"APP_APP_KID_VALUE": "7"}))
	out, err := repo.Parse("app", parent)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"child": map[string]any{"value": 7}}, out)
}

func TestEnv_ExactMatchStaysWithItsParam(t *testing.T) {
	meta := &cfgtree.ConfigMetadata{
		Name: "Labeled",
		Params: []*cfgtree.Param{
			{
				Name:         "labels",
				Deserializer: cfgtree.Map[string](cfgtree.String()),
				Default:      cfgtree.DefaultFunc(func() map[string]string { return map[string]string{} }),
			},
			{Name: "labels_extra", Deserializer: cfgtree.String(), Default: cfgtree.DefaultValue("")},
		},
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"app": meta})
	src := cfgtree.Env("APP", map[string]string{
		"APP_APP_LABELS_EXTRA": "x",
		"APP_APP_LABELS_TEAM":  "core",
	})

	tree := src.Tree(schema)
	labels, ok := tree.Get("app.labels")
	require.True(t, ok)
	assert.Equal(t, `{"team": "core"}`, labels.Value.String())

	out, err := newRepo(t, schema).Add(src).Parse("app", meta)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"labels":       map[string]string{"team": "core"},
		"labels_extra": "x",
	}, out)
}

func TestEnv_JSONStrings(t *testing.T) {
	meta := newTestMeta()
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"test": meta})

	repo := newRepo(t, schema).Add(cfgtree.Env("APP", map[string]string{
		"APP_TEST_TAGS":   `["a", "b,c"]`,
		"APP_TEST_LABELS": ` {"k": "v", "team": "core"} `,
	}))

	cfg, err := cfgtree.Parse[TestConfig](repo, "test", meta)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, cfg.Tags)
	assert.Equal(t, map[string]string{"k": "v", "team": "core"}, cfg.Labels)
}
