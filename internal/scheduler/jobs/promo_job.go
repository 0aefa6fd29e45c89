package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/metrics"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

const promoRefreshTimeout = time.Minute

// PromoJob recomputes each promo's active flag from its time window and
// remaining capacity. Redemptions flip the flag inline when capacity runs
// out; this job handles window boundaries crossing in wall time.
type PromoJob struct {
	promoRepo repository.PromoRepository
	logger    *zap.Logger
}

func NewPromoJob(promoRepo repository.PromoRepository, logger *zap.Logger) *PromoJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoJob{promoRepo: promoRepo, logger: logger}
}

func (j *PromoJob) RefreshActiveFlags() {
	ctx, cancel := context.WithTimeout(context.Background(), promoRefreshTimeout)
	defer cancel()

	active, err := j.promoRepo.RefreshActive(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("refresh promo active flags failed", zap.Error(err))
		return
	}

	metrics.SetActivePromos(active)
	j.logger.Info("promo active flags refreshed", zap.Int64("active", active))
}
