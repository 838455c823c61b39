// Copyright 2025-2026 肖其顿 (XIAO QI DUN)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package otxrd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flattenString(t *testing.T, doc string) Node {
	t.Helper()
	root, err := DecodeRaw(strings.NewReader(doc))
	require.NoError(t, err)
	return Flatten(root)
}

func hasSequence(n Node) bool {
	for _, v := range n {
		switch v.Kind() {
		case KindSequence:
			return true
		case KindNode:
			child, _ := v.AsNode()
			if hasSequence(child) {
				return true
			}
		}
	}
	return false
}

func TestFlatten_NoRepeatsNoSequences(t *testing.T) {
	n := flattenString(t, `<r a="1"><x><y k="v">text</y></x><z/></r>`)

	assert.False(t, hasSequence(n))
	s, err := n.Lookup("x", "y", TextKey)
	require.NoError(t, err)
	text, ok := s.AsScalar()
	assert.True(t, ok)
	assert.Equal(t, "text", text)
	z, err := n.Lookup("z")
	require.NoError(t, err)
	assert.Equal(t, KindNode, z.Kind())
}

func TestFlatten_RepeatedTagsKeepOrder(t *testing.T) {
	n := flattenString(t, `<r><p i="0"/><q/><p i="1"/><p i="2"/></r>`)

	v, err := n.Lookup("p")
	require.NoError(t, err)
	seq, ok := v.AsSequence()
	require.True(t, ok)
	require.Len(t, seq, 3)
	for i, item := range seq {
		node, ok := item.AsNode()
		require.True(t, ok)
		idx, _ := node["i"].AsScalar()
		assert.Equal(t, string(rune('0'+i)), idx)
	}
	q, _ := n.Lookup("q")
	assert.Equal(t, KindNode, q.Kind())
}

func TestFlatten_SecondOccurrencePromotes(t *testing.T) {
	n := flattenString(t, `<r><p>a</p><p>b</p></r>`)

	seq, ok := n["p"].AsSequence()
	require.True(t, ok)
	assert.Len(t, seq, 2)
}

func TestFlatten_ChildCollidesWithAttribute(t *testing.T) {
	n := flattenString(t, `<r Name="attr"><Name>child</Name></r>`)

	seq, ok := n["Name"].AsSequence()
	require.True(t, ok)
	require.Len(t, seq, 2)
	first, ok := seq[0].AsScalar()
	assert.True(t, ok)
	assert.Equal(t, "attr", first)
	second, ok := seq[1].AsNode()
	require.True(t, ok)
	text, _ := second[TextKey].AsScalar()
	assert.Equal(t, "child", text)
}

func TestFlatten_WhitespaceTextOmitted(t *testing.T) {
	n := flattenString(t, "<r>\n   \n<c/></r>")
	_, ok := n[TextKey]
	assert.False(t, ok)
}

func TestNode_LookupErrors(t *testing.T) {
	n := flattenString(t, `<r k="v"><a/></r>`)

	_, err := n.Lookup("a", "missing")
	assert.True(t, errors.Is(err, ErrMissingKey))
	var pe *PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"a", "missing"}, pe.Path)
	assert.Equal(t, "a.missing: missing key", err.Error())

	_, err = n.Lookup("k", "deeper")
	assert.True(t, errors.Is(err, ErrUnexpectedType))
	assert.Equal(t, ErrUnexpectedType, errors.Cause(err))

	assert.Empty(t, n.LookupNode("nope", "nothing"))
	assert.Empty(t, n.LookupNode("k"))
}

func TestValue_Narrowing(t *testing.T) {
	s := Scalar("x")
	_, ok := s.AsNode()
	assert.False(t, ok)
	_, ok = s.AsSequence()
	assert.False(t, ok)
	assert.Equal(t, KindInvalid, Value{}.Kind())
}

func TestValue_MarshalJSON(t *testing.T) {
	n := flattenString(t, `<r a="1"><p>x</p><p>y</p></r>`)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1","p":[{"text":"x"},{"text":"y"}]}`, string(data))
}
