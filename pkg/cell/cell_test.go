package cell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/pkg/cell"
)

func intOf(t *testing.T, c cell.Cell) int {
	t.Helper()
	v, err := c.Get()
	require.NoError(t, err)
	return v.(int)
}

func TestDerived_Memoizes(t *testing.T) {
	g := cell.NewGraph()
	x := g.NewSource(3)
	y := g.NewDerived(func() (cell.Value, error) {
		return intOf(t, x) * 3, nil
	})

	assert.Equal(t, 0, y.Recomputes(), "derived cells are lazy")
	assert.Equal(t, 9, intOf(t, y))
	assert.Equal(t, 9, intOf(t, y))
	assert.Equal(t, 1, y.Recomputes())

	x.Set(10)
	assert.True(t, y.Dirty())
	assert.Equal(t, 30, intOf(t, y))
	assert.Equal(t, 2, y.Recomputes())
}

func TestDerived_Chain(t *testing.T) {
	g := cell.NewGraph()
	a := g.NewSource(1)
	b := g.NewSource(100)
	double := g.NewDerived(func() (cell.Value, error) { return intOf(t, a) * 2, nil })
	plus := g.NewDerived(func() (cell.Value, error) { return intOf(t, double) + 1, nil })
	other := g.NewDerived(func() (cell.Value, error) { return intOf(t, b) + 1, nil })

	assert.Equal(t, 3, intOf(t, plus))
	assert.Equal(t, 101, intOf(t, other))

	a.Set(5)
	assert.False(t, other.Dirty(), "unrelated derivations stay valid")
	assert.True(t, plus.Dirty(), "invalidation is transitive")
	assert.Equal(t, 11, intOf(t, plus))
	assert.Equal(t, 1, other.Recomputes())
}

func TestDerived_RetracksDependencies(t *testing.T) {
	g := cell.NewGraph()
	flag := g.NewSource(true)
	left := g.NewSource(1)
	right := g.NewSource(2)
	pick := g.NewDerived(func() (cell.Value, error) {
		v, _ := flag.Get()
		if v.(bool) {
			return intOf(t, left), nil
		}
		return intOf(t, right), nil
	})

	assert.Equal(t, 1, intOf(t, pick))
	right.Set(20)
	assert.False(t, pick.Dirty(), "right was not read by the last computation")

	flag.Set(false)
	assert.Equal(t, 20, intOf(t, pick))
	left.Set(10)
	assert.False(t, pick.Dirty(), "left is no longer a dependency")
}

func TestDerived_Cycle(t *testing.T) {
	g := cell.NewGraph()
	var self *cell.Derived
	self = g.NewDerived(func() (cell.Value, error) {
		return self.Get()
	})

	_, err := self.Get()
	require.ErrorIs(t, err, cell.ErrCycle)
}

func TestOnChange(t *testing.T) {
	g := cell.NewGraph()
	x := g.NewSource(1)
	y := g.NewDerived(func() (cell.Value, error) { return intOf(t, x) + 1, nil })

	var sourceFired, derivedFired int
	x.OnChange(func() { sourceFired++ })
	y.OnChange(func() { derivedFired++ })

	_, _ = y.Get()
	x.Set(2)
	x.Set(3)

	assert.Equal(t, 2, sourceFired)
	assert.Equal(t, 1, derivedFired, "a dirty derivation is not invalidated twice")
}
