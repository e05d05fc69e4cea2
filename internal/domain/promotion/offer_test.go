package promotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard_DropsBlankLines(t *testing.T) {
	b := NewBoard([]string{"  5% off on Oil ", "", "   ", "Free delivery"})
	assert.Equal(t, []string{"5% off on Oil", "Free delivery"}, b.Lines())
	assert.False(t, b.IsEmpty())
}

func TestBoard_AddRemove(t *testing.T) {
	b := NewBoard(nil)
	require.NoError(t, b.Add("5% off on oil"))
	require.NoError(t, b.Add("free delivery"))
	require.NoError(t, b.Add("5% off on oil"))

	require.NoError(t, b.Remove("5% off on oil"))
	assert.Equal(t, []string{"free delivery", "5% off on oil"}, b.Lines())

	assert.ErrorIs(t, b.Remove("buy 2 get 1"), ErrOfferNotFound)
	assert.ErrorIs(t, b.Add("  "), ErrEmptyOffer)
	assert.ErrorIs(t, b.Remove(""), ErrEmptyOffer)
}

func TestBoard_Displayed(t *testing.T) {
	assert.Equal(t, DefaultOffers, NewBoard(nil).Displayed())

	var missing *Board
	assert.Equal(t, DefaultOffers, missing.Displayed())

	b := NewBoard([]string{"free delivery"})
	assert.Equal(t, []string{"free delivery"}, b.Displayed())
}

func TestBoard_LinesIsACopy(t *testing.T) {
	b := NewBoard([]string{"a"})
	lines := b.Lines()
	lines[0] = "changed"
	assert.Equal(t, []string{"a"}, b.Lines())
}
