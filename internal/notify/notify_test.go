package notify_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krittapak/catalog-panel/internal/notify"
)

func newCenter(capacity int) *notify.Center {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return notify.NewCenter(logger, capacity)
}

func TestCenterFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		center := newCenter(10)

		center.Notify(ctx, notify.Success("Created", "first"))
		center.Notify(ctx, notify.Error("Failed", "second"))

		feed := center.Recent()
		require.Len(t, feed, 2)
		assert.Equal(t, "second", feed[0].Message)
		assert.Equal(t, notify.LevelError, feed[0].Level)
		assert.Equal(t, "first", feed[1].Message)
		assert.False(t, feed[0].CreatedAt.IsZero())
	})

	t.Run("bounded by capacity", func(t *testing.T) {
		center := newCenter(3)

		for i := 0; i < 5; i++ {
			center.Notify(ctx, notify.Success("Created", fmt.Sprintf("n%d", i)))
		}

		feed := center.Recent()
		require.Len(t, feed, 3)
		assert.Equal(t, "n4", feed[0].Message)
		assert.Equal(t, "n2", feed[2].Message)
	})

	t.Run("Recent returns a copy", func(t *testing.T) {
		center := newCenter(10)
		center.Notify(ctx, notify.Success("Created", "kept"))

		feed := center.Recent()
		feed[0].Message = "mutated"

		assert.Equal(t, "kept", center.Recent()[0].Message)
	})
}
