package service

import (
	"bytes"
	"context"
	"log/slog"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/report"
)

// OrderLister returns the order history, newest first.
type OrderLister interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// ReportService renders the order history into a downloadable report.
type ReportService struct {
	orders   OrderLister
	renderer report.Renderer
	opts     report.Options
	logger   *slog.Logger
}

// NewReportService creates a report service.
func NewReportService(orders OrderLister, renderer report.Renderer, opts report.Options, logger *slog.Logger) *ReportService {
	return &ReportService{
		orders:   orders,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// ContentType is the media type of the bytes Generate returns.
func (s *ReportService) ContentType() string {
	return s.renderer.ContentType()
}

// Generate renders the whole order history. The report is rendered into
// memory so that a failure never produces a partial document.
func (s *ReportService) Generate(ctx context.Context) ([]byte, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	doc := report.Build(orders, domain.Aggregate(orders), s.opts)

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, doc); err != nil {
		reportFailures.Inc()
		s.logger.ErrorContext(ctx, "failed to render report",
			slog.Int("orders", len(orders)),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ReportGeneration(err)
	}

	s.logger.InfoContext(ctx, "report generated",
		slog.Int("orders", len(orders)),
		slog.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}
