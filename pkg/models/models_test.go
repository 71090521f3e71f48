package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeResultJSONOmitsDuration(t *testing.T) {
	data, err := json.Marshal(ScrapeResult{NewLotCount: 2, ExecutionTime: 1500 * time.Millisecond})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "executionTimeMs", "durations are reported in milliseconds by SearchRun")
	assert.NotContains(t, fields, "ExecutionTime")
	assert.EqualValues(t, 2, fields["newLotCount"])
}

func TestLotEndsAt(t *testing.T) {
	end := time.Date(2026, 11, 2, 12, 0, 0, 0, time.UTC)
	lot := Lot{Timestamp: end.UnixMilli()}
	assert.True(t, lot.EndsAt().Equal(end))
}
