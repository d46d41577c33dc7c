package cfgm_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgm"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestFindProjectRoot(t *testing.T) {
	root, err := cfgm.FindProjectRoot(0)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "go.mod"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pkg", "cfgm"), wd)
}

func TestLoad_FirstFileWins(t *testing.T) {
	first := writeFile(t, "a.yaml", "name: from-a\n")
	second := writeFile(t, "b.yaml", "name: from-b\n")

	cfg, err := cfgm.LoadConfig[Config](configMeta(),
		cfgm.WithConfigPaths(filepath.Join(t.TempDir(), "missing.yaml"), first, second),
		cfgm.WithEnviron([]string{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "from-a", cfg.Name)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeFile(t, "bad.yaml", "- not\n- an object\n")

	_, err := cfgm.LoadConfig[Config](configMeta(), cfgm.WithConfigPaths(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config root must be object")
}

func TestLoad_TemplateExpansion(t *testing.T) {
	path := writeFile(t, "app.yaml", "name: ${APP_NAME:-fallback}\n")
	schema := cfgtree.NewSchema()
	require.NoError(t, schema.Insert(configMeta(), ""))

	repo, err := cfgm.Load(schema,
		cfgm.WithConfigPaths(path),
		cfgm.WithEnviron([]string{"APP_NAME=expanded"}),
	)
	require.NoError(t, err)

	node, ok := repo.Resolve("name")
	require.True(t, ok)
	assert.Equal(t, `"expanded"`, node.Value.String())
	assert.Equal(t, "YAML file '"+path+"' -> path 'name' -> shell parameter expansion", node.Origin.String())

	repo, err = cfgm.Load(schema,
		cfgm.WithConfigPaths(path),
		cfgm.WithEnviron([]string{"APP_NAME=expanded"}),
		cfgm.WithoutTemplateExpansion(),
	)
	require.NoError(t, err)
	node, _ = repo.Resolve("name")
	assert.Equal(t, `"${APP_NAME:-fallback}"`, node.Value.String())
}

func TestLoad_RequiredTemplateVariable(t *testing.T) {
	path := writeFile(t, "app.yaml", "name: ${APP_NAME:?set APP_NAME}\n")

	_, err := cfgm.LoadConfig[Config](configMeta(), cfgm.WithConfigPaths(path), cfgm.WithEnviron([]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set APP_NAME")
}

func TestLoad_ParseErrorsAreCollected(t *testing.T) {
	path := writeFile(t, "app.yaml", "debug: maybe\ntimeout: soon\n")

	_, err := cfgm.LoadConfig[Config](configMeta(), cfgm.WithConfigPaths(path), cfgm.WithEnviron([]string{}))
	errs, ok := cfgtree.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"debug", "timeout"}, errs.Paths())
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	path := writeFile(t, "app.yaml", "name: from-file\n")

	var got *Config
	var repo *cfgtree.Repository
	cmd := &cli.Command{
		Name: "app",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.BoolFlag{Name: "debug"},
			&cli.DurationFlag{Name: "timeout"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error
			got, repo, err = cfgm.LoadConfigRepo[Config](configMeta(),
				cfgm.WithCommand(cmd),
				cfgm.WithConfigPaths(path),
				cfgm.WithEnvPrefix("APP_"),
				cfgm.WithEnviron([]string{"APP_NAME=from-env", "APP_DEBUG=true"}),
			)
			return err
		},
	}

	require.NoError(t, cmd.Run(context.Background(), []string{"app", "--name", "from-flag", "--timeout", "2m"}))
	assert.Equal(t, "from-flag", got.Name)
	assert.True(t, got.Debug, "unset flags do not shadow env")
	assert.Equal(t, "2m0s", got.Timeout.String())

	node, _ := repo.Resolve("name")
	assert.Equal(t, "command-line flag '--name'", node.Origin.String())

	sources := repo.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, cfgm.PriorityFlag, sources[len(sources)-1].Priority)
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "server-url", cfgm.FlagName("server.url"))
	assert.Equal(t, "tls-skip_verify", cfgm.FlagName("tls.skip_verify"))
}
