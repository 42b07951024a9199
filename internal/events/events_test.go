package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/model"
)

func TestEncode(t *testing.T) {
	data, err := events.Encode(events.EventTaskCompleted, map[string]any{"task": "dedup", "deleted": 3})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "EVENT_TASK_COMPLETED", body["type"])
	assert.Equal(t, "dedup", body["task"])
	assert.Equal(t, float64(3), body["deleted"])
}

func TestRedisNotifier_NilClientIsNoop(t *testing.T) {
	n := events.NewRedisNotifier(nil, nil)
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), events.EventJobsIngested, map[string]any{"created": 1})
	})
}

func TestDecodeBatch(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := events.Batch{
		Source:      "lever:arup",
		PublishedAt: at,
		Jobs:        []model.Job{{Hash: "abc", Slug: "graduate-engineer-abc", Title: "Graduate Engineer", PostedAt: at}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := events.DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, "lever:arup", out.Source)
	require.Len(t, out.Jobs, 1)
	assert.Equal(t, "abc", out.Jobs[0].Hash)

	_, err = events.DecodeBatch([]byte("{not json"))
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}
