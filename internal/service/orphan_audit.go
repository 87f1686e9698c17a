package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/basel-ax/promptpix/internal/domain"
	"github.com/basel-ax/promptpix/internal/metrics"
)

// OrphanAuditor reports stored artifacts that no record references. These appear when a
// record insert fails after a successful upload. It only reports; nothing is deleted.
type OrphanAuditor struct {
	store   domain.ArtifactStore
	repo    domain.ImageRepository
	metrics *metrics.Metrics
	log     *zap.Logger
	grace   time.Duration
	now     func() time.Time
}

// NewOrphanAuditor creates an auditor. Objects younger than grace are skipped since their
// record may still be in flight.
func NewOrphanAuditor(store domain.ArtifactStore, repo domain.ImageRepository, m *metrics.Metrics, log *zap.Logger, grace time.Duration) *OrphanAuditor {
	return &OrphanAuditor{
		store:   store,
		repo:    repo,
		metrics: m,
		log:     log.With(zap.String("component", "orphan_audit")),
		grace:   grace,
		now:     time.Now,
	}
}

// Run performs one audit pass
func (a *OrphanAuditor) Run(ctx context.Context) (domain.OrphanReport, error) {
	// Read the records first so that an upload racing the scan is never reported
	urls, err := a.repo.ImageURLs(ctx)
	if err != nil {
		return domain.OrphanReport{}, fmt.Errorf("failed to load referenced urls: %w", err)
	}
	objects, err := a.store.List(ctx)
	if err != nil {
		return domain.OrphanReport{}, fmt.Errorf("failed to list artifacts: %w", err)
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		referenced[u] = struct{}{}
	}

	cutoff := a.now().Add(-a.grace)
	report := domain.OrphanReport{Scanned: len(objects)}
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if _, ok := referenced[obj.URL]; ok {
			continue
		}
		report.Orphaned = append(report.Orphaned, obj)
		a.log.Warn("orphaned artifact",
			zap.String("key", obj.Key),
			zap.String("url", obj.URL),
			zap.Time("last_modified", obj.LastModified),
		)
	}

	a.metrics.SetOrphanedArtifacts(len(report.Orphaned))
	a.log.Info("orphan audit finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("orphaned", len(report.Orphaned)),
	)
	return report, nil
}
