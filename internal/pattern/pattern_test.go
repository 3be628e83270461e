package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Pattern
	}{
		{"", nil},
		{"x", Pattern{"x"}},
		{"users.*.name", Pattern{"users", "*", "name"}},
		{"**", Pattern{"**"}},
		{"a..b", Pattern{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestPattern_String(t *testing.T) {
	assert.Equal(t, "users.*.name", Pattern{"users", "*", "name"}.String())
	assert.Equal(t, "", Pattern(nil).String())
}

func TestPattern_IsWildcard(t *testing.T) {
	assert.False(t, Parse("a.b").IsWildcard())
	assert.True(t, Parse("a.*").IsWildcard())
	assert.True(t, Parse("**.b").IsWildcard())
}

func TestFromSegments(t *testing.T) {
	p, err := FromSegments([]any{"users", 3, int64(4), "name", 1.0})
	require.NoError(t, err)
	assert.Equal(t, Pattern{"users", "3", "4", "name", "1"}, p)

	_, err = FromSegments([]any{"a", struct{}{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSegment))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(nil))
	require.NoError(t, Validate(Parse("a.**.b")))
	require.NoError(t, Validate(Parse("*.*")))

	err := Validate(Parse("a.**.b.**"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleGlobstar)
}

func TestPath_Child(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "a"

	b := base.Child("b")
	c := base.Child("c")

	assert.Equal(t, Path{"a", "b"}, b)
	assert.Equal(t, Path{"a", "c"}, c)
	assert.Equal(t, Path{"a"}, base)
}

func TestPath_ParentBase(t *testing.T) {
	p := ParsePath("a.b.c")
	assert.Equal(t, Path{"a", "b"}, p.Parent())
	assert.Equal(t, "c", p.Base())
	assert.Nil(t, Path{"a"}.Parent())
	assert.Equal(t, "", Path(nil).Base())
}

func TestPath_Equal(t *testing.T) {
	assert.True(t, Path{"a", "1"}.Equal(Path{"a", "1"}))
	assert.False(t, Path{"a", "1"}.Equal(Path{"a"}))
	assert.False(t, Path{"a", "1"}.Equal(Path{"a", "2"}))
}
