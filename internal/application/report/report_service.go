package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dukaandost/backend/internal/domain/catalog"
	"github.com/dukaandost/backend/internal/domain/report"
	"github.com/dukaandost/backend/internal/domain/trade"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Chart axis labels
const (
	chartXLabel = "Product"
	chartYLabel = "Quantity Sold"
)

// ReportService builds the owner's sales reports from the ledger and catalog
type ReportService struct {
	products  catalog.ProductRepository
	ledger    trade.OrderLedger
	renderer  report.ChartRenderer
	archive   report.ChartArchive
	costRatio decimal.Decimal
	now       func() time.Time
	logger    *zap.Logger
}

// ReportServiceOption is a functional option for configuring the service
type ReportServiceOption func(*ReportService)

// WithChartArchive keeps a copy of every rendered chart
func WithChartArchive(archive report.ChartArchive) ReportServiceOption {
	return func(s *ReportService) {
		s.archive = archive
	}
}

// WithCostRatio overrides report.DefaultCostRatio
func WithCostRatio(ratio decimal.Decimal) ReportServiceOption {
	return func(s *ReportService) {
		s.costRatio = ratio
	}
}

// WithClock overrides the clock that decides what "today" is
func WithClock(now func() time.Time) ReportServiceOption {
	return func(s *ReportService) {
		s.now = now
	}
}

// NewReportService creates a new ReportService
func NewReportService(
	products catalog.ProductRepository,
	ledger trade.OrderLedger,
	renderer report.ChartRenderer,
	logger *zap.Logger,
	opts ...ReportServiceOption,
) *ReportService {
	s := &ReportService{
		products:  products,
		ledger:    ledger,
		renderer:  renderer,
		costRatio: report.DefaultCostRatio,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SalesByProduct returns all-time quantities per product
func (s *ReportService) SalesByProduct(ctx context.Context) ([]report.ProductSales, error) {
	orders, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return report.SalesByProduct(orders), nil
}

// ProfitAndLossToday values today's orders. LedgerEmpty is set when no order
// was ever placed.
func (s *ReportService) ProfitAndLossToday(ctx context.Context) (*DailySummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "profit_and_loss")
	defer span.End()

	orders, err := s.ledger.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		return &DailySummary{LedgerEmpty: true}, nil
	}
	products, err := s.products.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	stmt := report.DailyProfitLoss(orders, products, s.now(), s.costRatio)
	return &DailySummary{Statement: stmt}, nil
}

// DemandInsights names the best and worst selling products of all time
func (s *ReportService) DemandInsights(ctx context.Context) (*report.DemandInsight, error) {
	sales, err := s.SalesByProduct(ctx)
	if err != nil {
		return nil, err
	}
	return report.RankDemand(sales)
}

// SalesChart renders all-time sales per product and returns the PNG path.
// It returns report.ErrNoSalesData when nothing has been sold.
func (s *ReportService) SalesChart(ctx context.Context, title string) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "sales_chart")
	defer span.End()

	sales, err := s.SalesByProduct(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	if len(sales) == 0 {
		return "", report.ErrNoSalesData
	}

	chart := report.BarChart{Title: title, XLabel: chartXLabel, YLabel: chartYLabel}
	for _, ps := range sales {
		chart.Bars = append(chart.Bars, report.Bar{Label: ps.ProductName, Value: ps.TotalQuantity})
	}

	path, err := s.renderer.RenderBarChart(ctx, chart)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("failed to render sales chart: %w", err)
	}

	if s.archive != nil {
		location, err := s.archive.Archive(ctx, path)
		if err != nil {
			s.logger.Warn("failed to archive sales chart", zap.String("path", path), zap.Error(err))
		} else {
			s.logger.Debug("sales chart archived", zap.String("location", location))
		}
	}
	return path, nil
}
