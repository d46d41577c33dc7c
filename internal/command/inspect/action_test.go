package inspect

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

func TestWriteTable(t *testing.T) {
	raw := value.NewNode(value.String("8000"), value.EnvVarOrigin("APP_PORT"))
	infos := []cfgtree.ParamInfo{
		{Path: "server.port", Status: cfgtree.StatusSet, Raw: &raw, Origin: raw.Origin},
		{Path: "server.host", Status: cfgtree.StatusDefault},
		{Path: "server.listen", Status: cfgtree.StatusSet, Raw: &raw, Origin: raw.Origin, Deprecated: true},
	}

	var buf bytes.Buffer
	writeTable(&buf, infos)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Contains(t, string(lines[1]), `"8000"`)
	assert.Contains(t, string(lines[1]), "env variable 'APP_PORT'")
	assert.Contains(t, string(lines[2]), "default")
	assert.Contains(t, string(lines[3]), "(deprecated name)")
}

func TestAction_CanonicalYAML(t *testing.T) {
	t.Setenv("CFGTREE_SERVER_ADDR", ":9999")
	t.Setenv("REDISCLI_AUTH", "hunter2")

	var buf bytes.Buffer
	root := &cli.Command{
		Name:     "app",
		Writer:   &buf,
		Commands: []*cli.Command{Command},
	}
	require.NoError(t, root.Run(context.Background(), []string{"app", "inspect", "--format", "yaml"}))

	out := buf.String()
	assert.Contains(t, out, ":9999")
	assert.Contains(t, out, value.Redacted)
	assert.NotContains(t, out, "hunter2")
}
