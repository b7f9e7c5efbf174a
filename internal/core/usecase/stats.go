package usecase

import (
	"context"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

// StatsUseCase recomputes dashboard counters from the store on demand;
// there is no independent lifecycle to keep in sync.
type StatsUseCase struct {
	store ports.DocumentStore
}

func NewStatsUseCase(store ports.DocumentStore) *StatsUseCase {
	return &StatsUseCase{store: store}
}

func (uc *StatsUseCase) Stats(ctx context.Context) (domain.ProcessingStats, error) {
	var stats domain.ProcessingStats
	counts := []struct {
		status domain.DocumentStatus
		target *int
	}{
		{domain.StatusPending, &stats.Pending},
		{domain.StatusProcessing, &stats.Processing},
		{domain.StatusCompleted, &stats.Completed},
		{domain.StatusFailed, &stats.Failed},
	}
	for _, c := range counts {
		n, err := uc.store.CountByStatus(ctx, c.status)
		if err != nil {
			return domain.ProcessingStats{}, domain.WrapError(domain.ErrStore, "count by status", err)
		}
		*c.target = n
	}
	stats.Total = stats.Pending + stats.Processing + stats.Completed + stats.Failed

	if terminal := stats.Completed + stats.Failed; terminal > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(terminal) * 100.0
	}

	avg, err := uc.store.AverageProcessingSeconds(ctx)
	if err != nil {
		return domain.ProcessingStats{}, domain.WrapError(domain.ErrStore, "average processing duration", err)
	}
	stats.AvgProcessingSeconds = avg
	return stats, nil
}
