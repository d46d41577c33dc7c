package cfgtree_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/cfgtree"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/secret"
	"github.com/lwmacct/261019-go-pkg-cfgtree/pkg/value"
)

func node(t *testing.T, raw any) value.Node {
	t.Helper()
	n, err := value.FromAny(raw, value.SyntheticOrigin("test"))
	require.NoError(t, err)

	return n
}

func TestScalars(t *testing.T) {
	tests := []struct {
		name string
		de   cfgtree.Deserializer
		raw  any
		want any
	}{
		{"bool", cfgtree.Bool(), true, true},
		{"bool from string", cfgtree.Bool(), "false", false},
		{"int from number", cfgtree.Int(), 42, 42},
		{"int from string", cfgtree.Int(), " -7 ", -7},
		{"uint16", cfgtree.Integer[uint16](), "65535", uint16(65535)},
		{"float", cfgtree.Float(), "2.5", 2.5},
		{"string from number", cfgtree.String(), 8080, "8080"},
		{"duration", cfgtree.Duration(), "1m30s", 90 * time.Second},
		{"duration words", cfgtree.Duration(), "30 secs", 30 * time.Second},
		{"duration in unit", cfgtree.DurationIn(time.Millisecond), 250, 250 * time.Millisecond},
		{"byte size", cfgtree.ByteSize(), "16 MiB", uint64(16 << 20)},
		{"byte size number", cfgtree.ByteSize(), 512, uint64(512)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.de.Deserialize(node(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalars_Errors(t *testing.T) {
	var typeErr *cfgtree.TypeError

	_, err := cfgtree.Int().Deserialize(node(t, []any{1}))
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, value.KindArray, typeErr.Got)

	_, err = cfgtree.Integer[uint8]().Deserialize(node(t, 300))
	require.Error(t, err)
	assert.NotErrorAs(t, err, &typeErr)
	assert.Contains(t, err.Error(), "out of range")

	_, err = cfgtree.Duration().Deserialize(node(t, 5))
	require.ErrorAs(t, err, &typeErr, "bare numbers need a unit")

	_, err = cfgtree.Duration().Deserialize(node(t, "5 fortnights"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown unit")
}

func TestSecretDeserializer(t *testing.T) {
	got, err := cfgtree.Secret().Deserialize(node(t, "hunter2"))
	require.NoError(t, err)

	s, ok := got.(*secret.String)
	require.True(t, ok)
	assert.Equal(t, "hunter2", s.Expose())
	assert.Equal(t, secret.Placeholder, s.String())
	s.Clear()
}

func TestList_EmptyShapesAgree(t *testing.T) {
	meta := &cfgtree.ConfigMetadata{
		Name: "Lists",
		Params: []*cfgtree.Param{{
			Name:         "items",
			Deserializer: cfgtree.List[int](cfgtree.Int()),
			Default:      cfgtree.DefaultFunc(func() []int { return []int{} }),
		}},
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"": meta})

	inputs := map[string]cfgtree.Source{
		"empty array":  fileSource(t, "a.yaml", map[string]any{"items": []any{}}),
		"empty string": fileSource(t, "a.yaml", map[string]any{"items": ""}),
		"absent":       fileSource(t, "a.yaml", map[string]any{}),
	}
	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			out, err := newRepo(t, schema).Add(src).Parse("", meta)
			require.NoError(t, err)
			assert.Equal(t, []int{}, out.(map[string]any)["items"])
		})
	}
}

func TestList_Shapes(t *testing.T) {
	got, err := cfgtree.List[int](cfgtree.Int()).Deserialize(node(t, []any{1, "2"}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	got, err = cfgtree.Delimited[string](cfgtree.String(), ":").Deserialize(node(t, "/usr/bin:/bin"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin", "/bin"}, got)

	_, err = cfgtree.List[int](cfgtree.Int()).Deserialize(node(t, "1,x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")

	got, err = cfgtree.List[int](cfgtree.Int()).Deserialize(node(t, " [2, 3, 5] "))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, got)

	strs, err := cfgtree.List[string](cfgtree.String()).Deserialize(node(t, `["a", "b,c"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, strs)

	// 不是合法 JSON 时按分隔字符串处理
	strs, err = cfgtree.List[string](cfgtree.String()).Deserialize(node(t, "[a, b]"))
	require.NoError(t, err)
	assert.Equal(t, []string{"[a", "b]"}, strs)

	var typeErr *cfgtree.TypeError
	_, err = cfgtree.List[int](cfgtree.Int()).Deserialize(node(t, map[string]any{"a": 1}))
	require.ErrorAs(t, err, &typeErr)
	assert.Contains(t, err.Error(), "array or \",\"-delimited string")
}

func TestMap_Shapes(t *testing.T) {
	de := cfgtree.Map[int](cfgtree.Int(), cfgtree.Entries("name", "value"))
	want := map[string]int{"a": 1, "b": 2}

	for name, raw := range map[string]any{
		"object":      map[string]any{"a": 1, "b": 2},
		"delimited":   "a=1, b=2",
		"tuples":      []any{map[string]any{"name": "a", "value": 1}, map[string]any{"name": "b", "value": "2"}},
		"json object": `{"a": 1, "b": "2"}`,
		"json tuples": `[{"name": "a", "value": 1}, {"name": "b", "value": 2}]`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := de.Deserialize(node(t, raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := de.Deserialize(node(t, []any{
		map[string]any{"name": "a", "value": 1},
		map[string]any{"name": "a", "value": 2},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")

	var typeErr *cfgtree.TypeError
	_, err = de.Deserialize(node(t, true))
	require.ErrorAs(t, err, &typeErr)
	assert.Contains(t, err.Error(), "array of {name, value} objects")
}

type endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func TestObject(t *testing.T) {
	de := cfgtree.Object[endpoint]()
	got, err := de.Deserialize(node(t, map[string]any{"host": "h", "port": "80"}))
	require.NoError(t, err)
	assert.Equal(t, endpoint{Host: "h", Port: 80}, got)

	got, err = de.Deserialize(node(t, `{"host": "h", "port": 80}`))
	require.NoError(t, err)
	assert.Equal(t, endpoint{Host: "h", Port: 80}, got)

	raw, err := de.(cfgtree.Serializer).Serialize(endpoint{Host: "h", Port: 80})
	require.NoError(t, err)
	assert.Equal(t, `{"host": "h", "port": 80}`, raw.String())
}

func TestValidators(t *testing.T) {
	assert.Equal(t, "must be in range 0..=10", cfgtree.Range(0, 10).Describe())
	require.NoError(t, cfgtree.Range(0.0, 10.0).Validate(2.5))
	require.Error(t, cfgtree.Range(0, 10).Validate(11))
	require.Error(t, cfgtree.Range(0, 10).Validate("11"), "type mismatch is reported")

	require.NoError(t, cfgtree.Min(1).Validate(1))
	require.Error(t, cfgtree.NotEmpty().Validate(""))
	require.NoError(t, cfgtree.NotEmpty().Validate([]int{1}))
}

func TestFilter_TreatsFailureAsAbsent(t *testing.T) {
	meta := &cfgtree.ConfigMetadata{
		Name: "Filtered",
		Params: []*cfgtree.Param{{
			Name:         "name",
			Deserializer: cfgtree.String(),
			Default:      cfgtree.DefaultValue("anonymous"),
			Validators:   []cfgtree.Validator{cfgtree.Filter(cfgtree.NotEmpty())},
		}},
	}
	schema := mustSchema(t, map[string]*cfgtree.ConfigMetadata{"user": meta})
	repo := newRepo(t, schema).Add(cfgtree.Env("APP", map[string]string{"APP_USER_NAME": ""}))

	out, err := repo.Parse("user", meta)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "anonymous"}, out)
}
