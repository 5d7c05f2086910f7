package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteEventJSON(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	run := SyncRun{Total: 3, Successful: 2, Failed: 1, StartedAt: start, CompletedAt: &end}

	b, err := json.Marshal(CompleteOf(SummaryOf(run)))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"complete","summary":{"total":3,"successful":2,"failed":1,"duration":1.5}}`,
		string(b))
}
