package interfaces

import (
	"context"
	"time"
)

// EodSummarizer aggregates a day of journaled trades into a CSV report.
type EodSummarizer interface {
	SummarizeDay(ctx context.Context, day time.Time) (csvPath string, err error)
	ShouldRunNow() (shouldRun bool, csvPath string)
}
