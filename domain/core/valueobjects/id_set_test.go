package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSet_AddRemove(t *testing.T) {
	var s IDSet
	assert.True(t, s.IsEmpty())

	assert.True(t, s.Add("B"))
	assert.True(t, s.Add("A"))
	assert.False(t, s.Add("B"), "re-adding is a no-op")
	assert.False(t, s.Add(""), "empty ids are dropped")
	assert.Equal(t, []string{"B", "A"}, s.Strings())

	assert.True(t, s.Remove("B"))
	assert.False(t, s.Remove("B"))
	assert.Equal(t, []ItemID{"A"}, s.Slice())
}

func TestIDSet_Operations(t *testing.T) {
	a := NewIDSet("1", "2", "3")
	b := NewIDSet("3", "4")

	assert.Equal(t, []string{"1", "2", "3", "4"}, a.Union(b).Strings())
	assert.Equal(t, []string{"1", "2"}, a.Difference(b).Strings())
	assert.Equal(t, []string{"3"}, a.Intersect(b).Strings())
	assert.True(t, NewIDSet("3", "1", "2").Equal(a))
	assert.False(t, a.Equal(b))
}

func TestIDSet_CloneIsIndependent(t *testing.T) {
	a := NewIDSet("1")
	c := a.Clone()
	c.Add("2")

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, c.Len())
}

func TestUniq(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Uniq([]string{"a", "", " b ", "a", "b"}))
	assert.Equal(t, []string{}, Uniq(nil))
}

func TestOrEmpty(t *testing.T) {
	assert.Equal(t, []string{}, OrEmpty(nil, false))
	assert.Equal(t, []string{}, OrEmpty(nil, true))
	assert.Equal(t, []string{"x"}, OrEmpty([]string{"x"}, true))
}
