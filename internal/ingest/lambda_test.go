package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/meterwatch/internal/models"
)

func kinesisEvent(payloads ...string) events.KinesisEvent {
	var ev events.KinesisEvent
	for i, p := range payloads {
		ev.Records = append(ev.Records, events.KinesisEventRecord{
			EventID:     fmt.Sprintf("shardId-000:%d", i),
			EventSource: "aws:kinesis",
			Kinesis: events.KinesisRecord{
				SequenceNumber: fmt.Sprint(i + 1),
				Data:           []byte(p),
			},
		})
	}
	return ev
}

func TestBatchHandler_AllSucceed(t *testing.T) {
	var seen []string
	h := handlerFunc(func(ctx context.Context, r models.Reading) error {
		seen = append(seen, r.MeterID)
		return nil
	})
	logger, _ := logtest.NewNullLogger()

	resp, err := NewBatchHandler(h, logger).Handle(context.Background(), kinesisEvent(
		`{"meterId":"M1","timestamp":"2024-01-01T00:00:00Z","kWh":1}`,
		`{"meterId":"M2","timestamp":"2024-01-01T00:00:00Z","kWh":2}`,
	))
	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Equal(t, []string{"M1", "M2"}, seen)
}

func TestBatchHandler_ReportsFirstFailure(t *testing.T) {
	var seen []string
	h := handlerFunc(func(ctx context.Context, r models.Reading) error {
		seen = append(seen, r.MeterID)
		if r.MeterID == "M2" {
			return fmt.Errorf("%w: put failed", models.ErrStore)
		}
		return nil
	})
	logger, hook := logtest.NewNullLogger()

	resp, err := NewBatchHandler(h, logger).Handle(context.Background(), kinesisEvent(
		`{"meterId":"M1","timestamp":"2024-01-01T00:00:00Z"}`,
		`{"meterId":"M2","timestamp":"2024-01-01T00:00:00Z"}`,
		`{"meterId":"M3","timestamp":"2024-01-01T00:00:00Z"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, []events.KinesisBatchItemFailure{{ItemIdentifier: "2"}}, resp.BatchItemFailures)
	assert.Equal(t, []string{"M1", "M2"}, seen)
	assert.Equal(t, "Kinesis record failed", hook.LastEntry().Message)
}

func TestBatchHandler_MalformedRecord(t *testing.T) {
	h := handlerFunc(func(ctx context.Context, r models.Reading) error { return nil })
	logger, _ := logtest.NewNullLogger()

	resp, err := NewBatchHandler(h, logger).Handle(context.Background(), kinesisEvent(`not json`))
	require.NoError(t, err)
	assert.Equal(t, []events.KinesisBatchItemFailure{{ItemIdentifier: "1"}}, resp.BatchItemFailures)
}
