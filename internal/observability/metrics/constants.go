// Package metrics provides Prometheus collectors for the sensing components.
// Every recorder method is safe to call on a nil receiver so that components
// run unchanged when metrics are disabled.
package metrics

// Histogram bucket layouts.
const (
	BucketStart1     = 1.0
	BucketFactor2    = 2.0
	BucketCount10    = 10
	BucketCount16    = 16
	speedBucketWidth = 2.5 // m/s
	speedBucketCount = 16
)

// Outcome label values.
const (
	OutcomeProcessed = "processed"
	OutcomeThrottled = "throttled"
	OutcomeDropped   = "dropped"
	OutcomeAccepted  = "accepted"
)
