package conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionListAddRemove(t *testing.T) {
	l := NewConnectionList()
	c1 := NewConnection(1)
	c2 := NewConnection(2)

	assert.True(t, l.Add(c1))
	assert.False(t, l.Add(c1))
	assert.True(t, l.Add(c2))
	assert.Equal(t, 2, l.Len())

	assert.True(t, l.Remove(c1))
	assert.False(t, l.Contains(c1))
	assert.Equal(t, 1, l.Len())
}

func TestConnectionListUnion(t *testing.T) {
	l1 := NewConnectionList()
	l1.Add(NewConnection(1))
	l2 := NewConnectionList()
	l2.Add(NewConnection(2))

	u := l1.Union(l2)
	assert.Equal(t, 2, u.Len())
	// originals untouched
	assert.Equal(t, 1, l1.Len())
}

func TestLocalhostSentinel(t *testing.T) {
	c := NewConnection(LocalhostID)
	assert.True(t, c.IsLocalhost())
	assert.False(t, NewConnection(42).IsLocalhost())
}
