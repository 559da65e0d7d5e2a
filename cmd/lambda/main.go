package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tejusbharadwaj/meterwatch/internal/app"
	"github.com/tejusbharadwaj/meterwatch/internal/config"
	"github.com/tejusbharadwaj/meterwatch/internal/ingest"
)

// Command lambda handles Kinesis batches of meter readings in AWS Lambda.
// Configuration comes from the file named by CONFIG_PATH, if set, and from
// APP_ environment variables.
func main() {
	appConfig, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig.Store.Driver == "memory" {
		log.Fatalf("The memory store cannot be used from Lambda")
	}

	logger := appConfig.Logging.NewLogger()

	components, err := app.Build(context.Background(), appConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to build application: %v", err)
	}

	handler := ingest.NewBatchHandler(components.Service, logger)
	lambda.Start(handler.Handle)
}
