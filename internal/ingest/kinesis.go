package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/database"
)

const (
	checkpointRoot  = "_checkpoints"
	sequenceField   = "sequence"
	defaultPoll     = time.Second
	defaultBatchMax = 100
)

// KinesisConfig selects the shard a KinesisSource reads.
type KinesisConfig struct {
	Stream   string
	ShardID  string
	Region   string
	Endpoint string
	// Group names the consumer; each group keeps its own checkpoint.
	Group string
	// StartAt is TRIM_HORIZON or LATEST and only applies when the group has
	// no checkpoint yet.
	StartAt      string
	PollInterval time.Duration
	BatchLimit   int64
}

// KinesisSource reads one shard of a Kinesis stream. Commits are stored as
// checkpoints in a KeyRangeStore so that a restarted consumer resumes after
// the last committed record.
type KinesisSource struct {
	api    kinesisiface.KinesisAPI
	cfg    KinesisConfig
	kv     database.KeyRangeStore
	logger *logrus.Logger

	iterator *string
	opened   bool
	buffered []*kinesis.Record
}

// NewKinesisSource connects to Kinesis with the default credential chain.
func NewKinesisSource(cfg KinesisConfig, kv database.KeyRangeStore, logger *logrus.Logger) (*KinesisSource, error) {
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewKinesisSourceWithClient(kinesis.New(sess), cfg, kv, logger)
}

func NewKinesisSourceWithClient(api kinesisiface.KinesisAPI, cfg KinesisConfig, kv database.KeyRangeStore, logger *logrus.Logger) (*KinesisSource, error) {
	if cfg.Stream == "" || cfg.ShardID == "" {
		return nil, fmt.Errorf("kinesis stream and shard id are required")
	}
	if cfg.Group == "" {
		cfg.Group = "outputs.store"
	}
	for _, seg := range []string{cfg.Group, cfg.Stream, cfg.ShardID} {
		if !database.ValidSegment(database.SanitizeSegment(seg)) {
			return nil, fmt.Errorf("invalid checkpoint segment %q", seg)
		}
	}
	if cfg.StartAt == "" {
		cfg.StartAt = kinesis.ShardIteratorTypeTrimHorizon
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPoll
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultBatchMax
	}
	return &KinesisSource{api: api, cfg: cfg, kv: kv, logger: logger}, nil
}

func (s *KinesisSource) checkpointPath() []string {
	return []string{
		checkpointRoot,
		database.SanitizeSegment(s.cfg.Group),
		database.SanitizeSegment(s.cfg.Stream),
	}
}

// Receive returns the next record of the shard, polling while the shard is
// idle. It returns ErrSourceClosed once a closed shard is fully read. An
// expired iterator is reopened from the checkpoint; other errors, such as
// throttling, are returned for the caller to retry.
func (s *KinesisSource) Receive(ctx context.Context) (Message, error) {
	reopened := false
	for len(s.buffered) == 0 {
		if !s.opened {
			if err := s.openIterator(ctx); err != nil {
				return Message{}, err
			}
		}
		if s.iterator == nil {
			return Message{}, ErrSourceClosed
		}

		out, err := s.api.GetRecordsWithContext(ctx, &kinesis.GetRecordsInput{
			ShardIterator: s.iterator,
			Limit:         aws.Int64(s.cfg.BatchLimit),
		})
		if isExpiredIterator(err) && !reopened {
			// nothing is buffered, so the checkpoint is the last record handed out
			s.logger.WithError(err).WithField("shard", s.cfg.ShardID).Warn("Shard iterator expired, reopening from checkpoint")
			s.opened = false
			s.iterator = nil
			reopened = true
			continue
		}
		if err != nil {
			return Message{}, fmt.Errorf("get records: %w", err)
		}

		s.buffered = out.Records
		s.iterator = out.NextShardIterator
		if len(s.buffered) > 0 || s.iterator == nil {
			continue
		}
		if err := sleep(ctx, s.cfg.PollInterval); err != nil {
			return Message{}, err
		}
	}

	rec := s.buffered[0]
	s.buffered = s.buffered[1:]
	return Message{
		ID:        aws.StringValue(rec.SequenceNumber),
		Partition: s.cfg.ShardID,
		Data:      rec.Data,
	}, nil
}

func (s *KinesisSource) openIterator(ctx context.Context) error {
	in := &kinesis.GetShardIteratorInput{
		StreamName:        aws.String(s.cfg.Stream),
		ShardId:           aws.String(s.cfg.ShardID),
		ShardIteratorType: aws.String(s.cfg.StartAt),
	}

	seq, err := s.checkpoint(ctx)
	if err != nil {
		return err
	}
	if seq != "" {
		in.ShardIteratorType = aws.String(kinesis.ShardIteratorTypeAfterSequenceNumber)
		in.StartingSequenceNumber = aws.String(seq)
	}

	out, err := s.api.GetShardIteratorWithContext(ctx, in)
	if err != nil {
		return fmt.Errorf("get shard iterator: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"stream":   s.cfg.Stream,
		"shard":    s.cfg.ShardID,
		"resuming": seq != "",
	}).Info("Opened shard iterator")
	s.iterator = out.ShardIterator
	s.opened = true
	return nil
}

func (s *KinesisSource) checkpoint(ctx context.Context) (string, error) {
	shard := database.SanitizeSegment(s.cfg.ShardID)
	entries, err := s.kv.Range(ctx, s.checkpointPath(), shard, shard)
	if err != nil {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].Fields[sequenceField], nil
}

// Commit stores m's sequence number as the group's checkpoint for the shard.
func (s *KinesisSource) Commit(ctx context.Context, m Message) error {
	return s.kv.Put(ctx, s.checkpointPath(), database.SanitizeSegment(s.cfg.ShardID), map[string]string{
		sequenceField: m.ID,
		"committedAt": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func isExpiredIterator(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == kinesis.ErrCodeExpiredIteratorException
}

var _ Source = (*KinesisSource)(nil)
