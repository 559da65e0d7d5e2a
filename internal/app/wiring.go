// Package app assembles the components shared by the server and the Lambda
// entry points.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterwatch/internal/classifier"
	"github.com/tejusbharadwaj/meterwatch/internal/config"
	"github.com/tejusbharadwaj/meterwatch/internal/database"
	"github.com/tejusbharadwaj/meterwatch/internal/service"
)

// Components is the assembled application core.
type Components struct {
	KV      database.KeyRangeStore
	Store   *database.TimeSeriesStore
	Service *service.MeterService
}

// Close waits for detached writes and releases the store.
func (c *Components) Close() error {
	c.Store.Wait()
	return c.KV.Close()
}

// OpenStore connects the key-range backend named by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config) (database.KeyRangeStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		return database.NewMemoryStore(), nil
	case "postgres":
		return database.NewPostgresStore(ctx, cfg.Database.DSN(), cfg.Database.MaxConnections)
	case "dynamodb":
		return database.NewDynamoStore(database.DynamoConfig{
			Table:    cfg.DynamoDB.Table,
			Region:   cfg.DynamoDB.Region,
			Endpoint: cfg.DynamoDB.Endpoint,
		}, cfg.DynamoDB.MarkerCacheSize)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Build opens the store and wires the detector and the meter service on
// top of it.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Components, error) {
	kv, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	store := database.NewTimeSeriesStore(kv, cfg.Store.Root, logger)
	client := classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout, logger)
	detector := classifier.NewDetector(client, logger)

	return &Components{
		KV:      kv,
		Store:   store,
		Service: service.NewMeterService(store, detector, logger),
	}, nil
}
