package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
)

// SummaryService builds monthly attendance summaries for reporting views.
type SummaryService interface {
	// TrailingSummaries returns the month of now and the five before it, oldest first.
	TrailingSummaries(ctx context.Context, actor auth.Actor, req SummaryRequest, now time.Time) (SummaryResponse, error)
}
