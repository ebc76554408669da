package panel_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krittapak/catalog-panel/internal/model"
	"github.com/krittapak/catalog-panel/internal/panel"
)

func TestStateSnapshots(t *testing.T) {
	state := panel.NewState()

	state.SetProducts([]model.Product{{Code: "P1"}, {Code: "P2"}})
	state.SetStatistics(model.Statistics{TotalProducts: 2})

	t.Run("Products returns a copy", func(t *testing.T) {
		got := state.Products()
		require.Len(t, got, 2)

		got[0].Code = "mutated"
		fresh := state.Products()
		assert.Equal(t, "P1", fresh[0].Code)
	})

	t.Run("Product looks up by code", func(t *testing.T) {
		p, ok := state.Product("P2")
		require.True(t, ok)
		assert.Equal(t, "P2", p.Code)

		_, ok = state.Product("nope")
		assert.False(t, ok)
	})

	t.Run("SetProducts replaces wholesale", func(t *testing.T) {
		state.SetProducts([]model.Product{{Code: "P3"}})
		assert.Len(t, state.Products(), 1)

		state.SetProducts([]model.Product{{Code: "P1"}, {Code: "P2"}})
	})

	t.Run("Statistics returns the latest snapshot", func(t *testing.T) {
		assert.Equal(t, 2, state.Statistics().TotalProducts)
	})
}

func TestStateRemoveImage(t *testing.T) {
	first, second, third := uuid.New(), uuid.New(), uuid.New()

	newState := func() *panel.State {
		state := panel.NewState()
		state.SetProducts([]model.Product{
			{Code: "P1", ImageIDs: []uuid.UUID{first, second, third}},
			{Code: "P2", ImageIDs: []uuid.UUID{first}},
		})
		return state
	}

	t.Run("prunes while preserving order", func(t *testing.T) {
		state := newState()

		assert.True(t, state.RemoveImage("P1", second))

		p, _ := state.Product("P1")
		assert.Equal(t, []uuid.UUID{first, third}, p.ImageIDs)
	})

	t.Run("only touches the matching product", func(t *testing.T) {
		state := newState()

		assert.True(t, state.RemoveImage("P1", first))

		other, _ := state.Product("P2")
		assert.Equal(t, []uuid.UUID{first}, other.ImageIDs)
	})

	t.Run("absent identifier is a no-op", func(t *testing.T) {
		state := newState()

		require.True(t, state.RemoveImage("P1", second))
		assert.False(t, state.RemoveImage("P1", second))

		p, _ := state.Product("P1")
		assert.Equal(t, []uuid.UUID{first, third}, p.ImageIDs)
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		state := newState()

		assert.False(t, state.RemoveImage("nope", first))
	})
}
