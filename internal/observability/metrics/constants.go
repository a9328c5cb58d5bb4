// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Label values shared by the collectors in this package.
const (
	// StatusSuccess marks a completed operation.
	StatusSuccess = "success"
	// StatusError marks a failed operation.
	StatusError = "error"

	// OutcomeStored is an ingest that appended a record.
	OutcomeStored = "stored"
	// OutcomeEmpty is an ingest whose classifier found nothing.
	OutcomeEmpty = "empty"
	// OutcomeRejected is an ingest refused for bad input.
	OutcomeRejected = "rejected"
	// OutcomeError is an ingest that failed after validation.
	OutcomeError = "error"

	// OpAppend labels store append operations.
	OpAppend = "append"
	// OpClear labels store clear operations.
	OpClear = "clear"
	// OpLoad labels store load operations.
	OpLoad = "load"

	// CollaboratorClassifier labels the vision classifier.
	CollaboratorClassifier = "classifier"
	// CollaboratorNarrative labels the narrative generator.
	CollaboratorNarrative = "narrative"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~80s range).
	BucketStart10ms = 0.01
	// BucketStart64B is the starting bucket for 64 byte histograms.
	BucketStart64B = 64.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount8 defines 8 exponential buckets.
	BucketCount8 = 8
	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount14 defines 14 exponential buckets.
	BucketCount14 = 14
)

// ShutdownTimeout is the timeout for graceful shutdown of the metrics server.
const ShutdownTimeout = 5 * time.Second
