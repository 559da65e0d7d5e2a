// Package meterwatch classifies smart meter readings and keeps them in a
// time-indexed store.
//
// # Architecture
//
// The service is structured into several key packages:
//   - classifier: local anomaly rule and the remote prediction client
//   - database: key-range backends and the time-indexed reading store
//   - service: the submit, ingest and query operations
//   - ingest: the streaming loop, its Kinesis source and the Lambda handler
//   - grpc: gRPC service implementation and middleware
//   - http: JSON API for dashboards and devices
//   - scheduler: periodic refresh of the known meters gauge
//   - models: shared data structures and error kinds
//
// Key Features
//
//   - Classification:
//     A reading with a non-positive kWh value is always anomalous. Every
//     reading is also sent to the prediction model, which may flag it too.
//
//   - Storage:
//     Readings and anomalies are keyed by a fixed-width UTC timestamp so
//     that a range query by time is a range scan by key.
//
//   - Ingestion:
//     Stream messages are processed in order and committed only after the
//     reading and its anomalies are durable. Store failures are retried
//     with exponential backoff.
//
// Example Usage
//
//	client := meterv1.NewMeterServiceClient(conn)
//	resp, err := client.QueryAnomalies(ctx, &meterv1.RangeRequest{
//	    MeterID: "meter-1",
//	    Start:   start,
//	    End:     end,
//	})
//
// For more information about specific packages, see their respective
// documentation.
package meterwatch
