package logger_test

import (
	"context"
	"testing"
	"time"

	"fileinbox-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInject(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		base, err := logger.New(context.Background())
		require.NoError(t, err)
		l := logger.GetLogger(base)

		ctx := logger.Inject(context.Background(), l)
		assert.Same(t, l, logger.GetLogger(ctx))
	})

	t.Run("keeps the target context's cancellation", func(t *testing.T) {
		base, err := logger.New(context.Background())
		require.NoError(t, err)
		l := logger.GetLogger(base)

		reqCtx, cancel := context.WithCancel(context.Background())
		ctx := logger.Inject(reqCtx, l)

		cancel()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("injected context did not inherit cancellation")
		}
	})

	t.Run("empty context falls back to a nop logger", func(t *testing.T) {
		assert.NotNil(t, logger.GetLogger(context.Background()))
	})
}
