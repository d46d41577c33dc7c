package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

func mustTree(t *testing.T, name string, raw map[string]any) value.Node {
	t.Helper()
	node, err := value.FromAny(raw, value.SyntheticOrigin(name))
	require.NoError(t, err)

	return node
}

func TestMerge_DeepObjects(t *testing.T) {
	low := mustTree(t, "low", map[string]any{
		"test": map[string]any{"port": 4000, "host": "localhost"},
		"keep": true,
	})
	high := mustTree(t, "high", map[string]any{
		"test": map[string]any{"port": 8000},
	})

	merged := value.Merge(low, high)

	port, ok := merged.Get("test.port")
	require.True(t, ok)
	assert.Equal(t, "8000", port.Value.String())
	assert.Equal(t, "high -> path 'test.port'", port.Origin.String())

	host, ok := merged.Get("test.host")
	require.True(t, ok)
	assert.Equal(t, `"localhost"`, host.Value.String())
	assert.Equal(t, "low -> path 'test.host'", host.Origin.String())

	_, ok = merged.Get("keep")
	assert.True(t, ok)
}

func TestMerge_ScalarReplacesObject(t *testing.T) {
	low := mustTree(t, "low", map[string]any{"test": map[string]any{"port": 4000}})
	mid := mustTree(t, "mid", map[string]any{"test": "disabled"})
	high := mustTree(t, "high", map[string]any{"test": map[string]any{"host": "h"}})

	merged := value.MergeAll(low, mid, high)

	_, ok := merged.Get("test.port")
	assert.False(t, ok, "scalar in the middle must cut inheritance from lower sources")

	test, ok := merged.Get("test")
	require.True(t, ok)
	assert.True(t, test.Value.Sealed())
}

func TestMergeGuided_LeafReplacedWholesale(t *testing.T) {
	low := mustTree(t, "low", map[string]any{"labels": map[string]any{"a": "1", "b": "2"}})
	high := mustTree(t, "high", map[string]any{"labels": map[string]any{"c": "3"}})

	merged := value.MergeGuided(low, high, "", func(path string) bool { return path == "labels" })

	labels, ok := merged.Get("labels")
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, labels.Value.Keys())
}

var treeKeys = []string{"a", "b", "c"}

func genTree(depth int, source string) *rapid.Generator[value.Node] {
	return rapid.Custom(func(t *rapid.T) value.Node {
		origin := value.SyntheticOrigin(source)
		if depth == 0 || rapid.IntRange(0, 3).Draw(t, "leaf") == 0 {
			switch rapid.IntRange(0, 2).Draw(t, "kind") {
			case 0:
				return value.NewNode(value.Int(int64(rapid.IntRange(0, 9).Draw(t, "int"))), origin)
			case 1:
				return value.NewNode(value.String(rapid.SampledFrom([]string{"x", "y"}).Draw(t, "str")), origin)
			default:
				return value.NewNode(value.Null(), origin)
			}
		}

		fields := make(map[string]value.Node)
		for _, key := range treeKeys {
			if rapid.Bool().Draw(t, "has_"+key) {
				fields[key] = genTree(depth-1, source).Draw(t, key)
			}
		}

		return value.NewNode(value.Object(fields), origin)
	})
}

func genSource(source string) *rapid.Generator[value.Node] {
	return rapid.Custom(func(t *rapid.T) value.Node {
		fields := make(map[string]value.Node)
		for _, key := range treeKeys {
			if rapid.Bool().Draw(t, "root_"+key) {
				fields[key] = genTree(3, source).Draw(t, key)
			}
		}

		return value.NewNode(value.Object(fields), value.SyntheticOrigin(source))
	})
}

func leafOrigins(node value.Node) map[string]string {
	out := make(map[string]string)
	node.Walk(func(path string, n value.Node) bool {
		if n.Value.Kind() != value.KindObject {
			out[path] = n.Origin.String()
		}
		return true
	})

	return out
}

func TestMerge_Associative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genSource("a").Draw(t, "a")
		b := genSource("b").Draw(t, "b")
		c := genSource("c").Draw(t, "c")

		left := value.Merge(value.Merge(a, b), c)
		right := value.Merge(a, value.Merge(b, c))

		require.Truef(t, left.Value.Equal(right.Value), "left=%s right=%s", left.Value, right.Value)
		assert.Equal(t, leafOrigins(left), leafOrigins(right))
	})
}

func TestMerge_OverrideLeavesWin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := genSource("base").Draw(t, "base")
		override := genSource("override").Draw(t, "override")

		merged := value.Merge(base, override)
		override.Walk(func(path string, n value.Node) bool {
			if n.Value.Kind() == value.KindObject {
				return true
			}
			got, ok := merged.Get(path)
			require.Truef(t, ok, "leaf %q lost after merge", path)
			assert.True(t, got.Value.Equal(n.Value))
			return true
		})
	})
}
