package ingest

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
)

// BatchHandler handles Kinesis batches delivered to a Lambda function.
//
// Records are handled in order. The first record that fails is reported as
// a batch item failure and the rest of the batch is left for redelivery, so
// that no record is committed ahead of an earlier one.
type BatchHandler struct {
	handler Handler
	logger  *logrus.Logger
}

func NewBatchHandler(handler Handler, logger *logrus.Logger) *BatchHandler {
	return &BatchHandler{handler: handler, logger: logger}
}

func (h *BatchHandler) Handle(ctx context.Context, event events.KinesisEvent) (events.KinesisEventResponse, error) {
	resp := events.KinesisEventResponse{BatchItemFailures: []events.KinesisBatchItemFailure{}}

	for _, rec := range event.Records {
		seq := rec.Kinesis.SequenceNumber
		log := h.logger.WithFields(logrus.Fields{
			"event_id": rec.EventID,
			"sequence": seq,
		})

		err := h.handle(ctx, rec.Kinesis.Data)
		if err == nil {
			messagesProcessed.WithLabelValues("lambda", "committed").Inc()
			continue
		}

		messagesProcessed.WithLabelValues("lambda", "failed").Inc()
		log.WithError(err).Error("Kinesis record failed")
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.KinesisBatchItemFailure{
			ItemIdentifier: seq,
		})
		break
	}
	return resp, nil
}

func (h *BatchHandler) handle(ctx context.Context, data []byte) error {
	r, err := DecodeReading(data)
	if err != nil {
		return err
	}
	return h.handler.Ingest(ctx, r)
}
