package eodobs

import (
	"context"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{summarizer: summarizer}
}

func (oes *observableEodSummarizer) SummarizeDay(ctx context.Context, day time.Time) (string, error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeDay")
	defer span.End()

	date := day.UTC().Format("2006-01-02")
	csvPath, err := oes.summarizer.SummarizeDay(ctx, day)
	if err != nil {
		span.RecordError(err)
		logger.WarnSkip(ctx, 1, "EOD summary generation failed", "date", date, "error", err.Error())
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No trades found for EOD summary", "date", date)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "EOD summary generated", "date", date, "csv_path", csvPath)
	return csvPath, nil
}

func (oes *observableEodSummarizer) ShouldRunNow() (bool, string) {
	return oes.summarizer.ShouldRunNow()
}
