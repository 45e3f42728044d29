package naming_test

import (
	"fmt"
	"testing"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/naming"

	"github.com/stretchr/testify/assert"
)

func TestResolveConflict(t *testing.T) {
	t.Run("free name passes through", func(t *testing.T) {
		got, err := naming.ResolveConflict("report.pdf", []string{"other.pdf"})
		assert.NoError(t, err)
		assert.Equal(t, "report.pdf", got)
	})

	t.Run("taken name gets first suffix", func(t *testing.T) {
		got, err := naming.ResolveConflict("report.pdf", []string{"report.pdf"})
		assert.NoError(t, err)
		assert.Equal(t, "report.pdf (1)", got)
	})

	t.Run("suffixes skip taken variants", func(t *testing.T) {
		got, err := naming.ResolveConflict("docs", []string{"docs", "docs (1)", "docs (2)"})
		assert.NoError(t, err)
		assert.Equal(t, "docs (3)", got)
	})

	t.Run("existing names are never touched", func(t *testing.T) {
		taken := []string{"docs", "docs (1)"}
		_, err := naming.ResolveConflict("docs", taken)
		assert.NoError(t, err)
		assert.Equal(t, []string{"docs", "docs (1)"}, taken)
	})

	t.Run("empty sibling list", func(t *testing.T) {
		got, err := naming.ResolveConflict("a", nil)
		assert.NoError(t, err)
		assert.Equal(t, "a", got)
	})

	t.Run("exhausted suffixes report a conflict", func(t *testing.T) {
		taken := make([]string, 0, 10001)
		taken = append(taken, "x")
		for i := 1; i <= 10000; i++ {
			taken = append(taken, fmt.Sprintf("x (%d)", i))
		}
		_, err := naming.ResolveConflict("x", taken)
		assert.ErrorIs(t, err, apperr.ErrNameConflict)
	})
}
