package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"country":"Nigeria"}`),
		Topic:     "rainfall-analysis-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("dashboard")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"country":"Nigeria"}`, string(raw.Value))
	assert.Equal(t, "rainfall-analysis-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "dashboard", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	rain := 412.5
	report := domain.Report{
		ID:        "req-1",
		Country:   "Nigeria",
		Seasons:   []string{"JJAS"},
		Mode:      domain.MethodFrequency,
		Parameter: 20,
		BadYears: domain.BadYearsTable{
			Columns: []string{"Kano - JJAS"},
			Rows: []domain.BadYearRow{{
				Year:      1994,
				Cells:     []domain.Cell{{RainfallMM: &rain, Bad: true}},
				FlaggedBy: []string{"Kano - JJAS"},
			}},
		},
		GeneratedAt: now,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("frequency"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var got domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, []int{1994}, got.BadYears.Years())
	require.NotNil(t, got.BadYears.Rows[0].Cells[0].RainfallMM)
	assert.InDelta(t, rain, *got.BadYears.Rows[0].Cells[0].RainfallMM, 1e-9)
}

func TestSerializeToMessage_NoDataCellIsNull(t *testing.T) {
	report := domain.Report{
		ID: "req-2",
		Comparison: domain.ComparisonTable{
			Columns: []string{"Kano - JJAS"},
			Rows:    []domain.ComparisonRow{{Year: 2001, Cells: []domain.Cell{{}}}},
		},
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"cells":[{"rainfall_mm":null,"bad":false}]`)
}
