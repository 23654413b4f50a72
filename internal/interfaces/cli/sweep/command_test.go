package sweep

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
)

func TestParseNow(t *testing.T) {
	t.Run("empty uses the clock", func(t *testing.T) {
		before := time.Now().UTC()
		now, err := parseNow("")
		require.NoError(t, err)
		assert.False(t, now.Before(before.Add(-time.Second)))
		assert.Equal(t, time.UTC, now.Location())
	})

	t.Run("RFC3339 is converted to UTC", func(t *testing.T) {
		now, err := parseNow("2026-03-01T09:30:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC), now)
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		_, err := parseNow("2026-03-01")
		assert.Error(t, err)
	})
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	summary := &usecases.SweepSummary{SuspendedCount: 2, TrialExpiredCount: 1}

	require.NoError(t, writeSummary(&buf, summary))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, 2, got["suspended_count"])
	assert.EqualValues(t, 1, got["trial_expired_count"])
	assert.Equal(t, false, got["interrupted"])
}
