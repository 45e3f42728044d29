package workspace_test

import (
	"testing"

	"fileinbox-service/internal/model/workspace"

	"github.com/stretchr/testify/assert"
)

func TestNewUsage(t *testing.T) {
	t.Run("below thresholds", func(t *testing.T) {
		u := workspace.NewUsage(79, 100)
		assert.False(t, u.Warning80)
		assert.False(t, u.Warning90)
		assert.InDelta(t, 79.0, u.UsagePercent, 0.001)
	})

	t.Run("80 percent warning", func(t *testing.T) {
		u := workspace.NewUsage(80, 100)
		assert.True(t, u.Warning80)
		assert.False(t, u.Warning90)
	})

	t.Run("90 percent implies both", func(t *testing.T) {
		u := workspace.NewUsage(95, 100)
		assert.True(t, u.Warning80)
		assert.True(t, u.Warning90)
	})

	t.Run("zero limit yields zero percent", func(t *testing.T) {
		u := workspace.NewUsage(10, 0)
		assert.Equal(t, 0.0, u.UsagePercent)
	})
}
