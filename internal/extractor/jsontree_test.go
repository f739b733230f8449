package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONKeepsMemberOrder(t *testing.T) {
	root, err := ParseJSON(`{"zeta": 1, "alpha": {"list": [1, "dois", true, null]}, "Mid": "x"}`)
	require.NoError(t, err)

	assert.Equal(t, KindObject, root.Kind)
	assert.Equal(t, []string{"zeta", "alpha", "Mid"}, root.Keys())

	list := root.Get("ALPHA").Get("list")
	require.NotNil(t, list)
	require.Len(t, list.Items, 4)
	assert.Equal(t, KindNumber, list.Items[0].Kind)
	assert.Equal(t, KindString, list.Items[1].Kind)
	assert.Equal(t, KindBool, list.Items[2].Kind)
	assert.Equal(t, KindNull, list.Items[3].Kind)
	assert.Equal(t, "x", root.Get("mid").Scalar)
}

func TestParseJSONRejectsMalformed(t *testing.T) {
	for _, input := range []string{`{"a":}`, `{"a": 1`, `{} trailing`, ``, `[1, 2,]`} {
		_, err := ParseJSON(input)
		assert.Error(t, err, input)
	}
}

func TestNodeNumber(t *testing.T) {
	root, err := ParseJSON(`{"n": 1049.5, "s": "R$ 1.234,56", "b": true, "o": {}}`)
	require.NoError(t, err)

	assert.Equal(t, 1049.5, *root.Get("n").Number())
	assert.InDelta(t, 1234.56, *root.Get("s").Number(), 1e-9)
	assert.Nil(t, root.Get("b").Number())
	assert.Nil(t, root.Get("o").Number())
	assert.Nil(t, root.Get("missing").Number())
}

func TestWalkSkipsSubtree(t *testing.T) {
	root, err := ParseJSON(`{"a": {"b": 1}, "skip": {"c": 2}, "d": [{"e": 3}]}`)
	require.NoError(t, err)

	var seen []string
	Walk(root, func(key string, _ *Node) bool {
		seen = append(seen, key)
		return key != "skip"
	})
	assert.Equal(t, []string{"a", "b", "skip", "d", "e"}, seen)
}

func TestParseJSONDepthLimit(t *testing.T) {
	atLimit := strings.Repeat("[", maxJSONDepth) + strings.Repeat("]", maxJSONDepth)
	root, err := ParseJSON(atLimit)
	require.NoError(t, err)
	assert.Equal(t, KindArray, root.Kind)

	tooDeep := strings.Repeat("[", maxJSONDepth+1) + strings.Repeat("]", maxJSONDepth+1)
	_, err = ParseJSON(tooDeep)
	assert.Error(t, err)

	objects := strings.Repeat(`{"a":`, maxJSONDepth+1) + "1" + strings.Repeat("}", maxJSONDepth+1)
	_, err = ParseJSON(objects)
	assert.Error(t, err)
}
