package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assignedValue parses `x = <expr>` and returns the normalized value.
func assignedValue(t *testing.T, expr string) Value {
	t.Helper()
	f := parseSrc(t, "x = "+expr+"\n")
	require.Len(t, f.Objects(), 1)
	a, ok := f.Objects()[0].(*Assign)
	require.True(t, ok)
	return a.Value
}

func TestValue_Render(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"None", "None"},
		{"True", "True"},
		{"False", "False"},
		{"42", "42"},
		{"0x1F", "31"},
		{"1_000", "1000"},
		{"0o17", "15"},
		{"1.5e3", "1.5e3"},
		{"2j", "2j"},
		{"...", "..."},
		{`"hello"`, `'hello'`},
		{`"it's"`, `"it's"`},
		{`'a\nb'`, `'a\nb'`},
		{`r"\d+"`, `'\\d+'`},
		{`"a" "b"`, `'ab'`},
		{`b"raw"`, `b"raw"`},
		{`f"{name}"`, `f"{name}"`},
		{"name", "name"},
		{"os.path.sep", "os.path.sep"},
		{"(name)", "name"},
		{"[1, 2]", "[1, 2]"},
		{"[]", "[]"},
		{"(1, 2)", "(1, 2)"},
		{"1, 2", "(1, 2)"},
		{"(1,)", "(1,)"},
		{"1,", "(1,)"},
		{"()", "()"},
		{"{1, 2}", "(1, 2),"},
		{"[*rest]", "[*rest]"},
		{"field(default=1)", "field(default=1)"},
		{"call(a, *b, c=1, **d)", "call(a, *b, c=1, **d)"},
		{"pkg.factory()(x)", "pkg.factory()(x)"},
		{"-1", "-1"},
		{`{"a": 1}`, `{"a": 1}`},
		{"lambda: 0", "lambda: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v := assignedValue(t, tt.expr)
			require.NotNil(t, v)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestValue_Kinds(t *testing.T) {
	lit, ok := assignedValue(t, "None").(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralNone, lit.Kind)

	_, ok = assignedValue(t, "a.b").(*Attribute)
	assert.True(t, ok)

	call, ok := assignedValue(t, "f(1, k=2)").(*Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 1)
	require.Len(t, call.Keywords, 1)
	assert.Equal(t, "k", call.Keywords[0].Name)

	raw, ok := assignedValue(t, "{1: 2}").(*Raw)
	require.True(t, ok)
	assert.Equal(t, "dictionary", raw.Kind)

	coll, ok := assignedValue(t, "{1}").(*Collection)
	require.True(t, ok)
	assert.Equal(t, Set, coll.Kind)
}

func TestMissingIsNotNone(t *testing.T) {
	m := onlyMethod(t, "def f(a, b=None, *, c, d=None):\n    pass\n")
	require.Len(t, m.Args, 2)
	require.Len(t, m.KwOnly, 2)

	assert.True(t, IsMissing(m.Args[0].Default))
	assert.False(t, IsMissing(m.Args[1].Default))
	assert.Equal(t, "None", m.Args[1].Default.String())

	assert.True(t, IsMissing(m.KwOnly[0].Default))
	assert.False(t, IsMissing(m.KwOnly[1].Default))
	assert.NotEqual(t, m.Args[0].Default, m.Args[1].Default)
}

func TestPyRepr(t *testing.T) {
	assert.Equal(t, `'plain'`, pyRepr("plain"))
	assert.Equal(t, `"it's"`, pyRepr("it's"))
	assert.Equal(t, `'both \' and "'`, pyRepr(`both ' and "`))
	assert.Equal(t, `'tab\there'`, pyRepr("tab\there"))
	assert.Equal(t, `'\x00'`, pyRepr("\x00"))
	assert.Equal(t, `'back\\slash'`, pyRepr(`back\slash`))
	assert.Equal(t, `'héllo'`, pyRepr("héllo"))
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a\tb", unescape(`a\tb`))
	assert.Equal(t, "A", unescape(`\x41`))
	assert.Equal(t, "é", unescape(`é`))
	assert.Equal(t, "\x07", unescape(`\7`))
	assert.Equal(t, `\q`, unescape(`\q`))
	assert.Equal(t, "ab", unescape("a\\\nb"))
}
