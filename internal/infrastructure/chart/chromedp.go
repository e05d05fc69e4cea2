package chart

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dukaandost/backend/internal/domain/report"
)

const defaultRenderTimeout = 30 * time.Second

// ErrRenderTimeout is returned when the browser does not finish in time
var ErrRenderTimeout = errors.New("chart rendering timed out")

// ChromedpConfig configures the headless browser used to rasterise charts
type ChromedpConfig struct {
	// OutputDir receives the PNG files
	OutputDir string
	// RemoteURL points at a running Chrome DevTools endpoint; empty launches a local browser
	RemoteURL string
	// NoSandbox is required when running as root in a container
	NoSandbox bool
	Timeout   time.Duration
	Layout    Layout
}

// ChromedpRenderer turns bar charts into PNG files by screenshotting the
// SVG in headless Chrome
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	now         func() time.Time
}

// NewChromedpRenderer prepares the browser allocator. The browser itself is
// started lazily by the first render.
func NewChromedpRenderer(config ChromedpConfig, logger *zap.Logger) (*ChromedpRenderer, error) {
	if config.OutputDir == "" {
		config.OutputDir = os.TempDir()
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultRenderTimeout
	}
	if config.Layout.Width == 0 {
		config.Layout = DefaultLayout()
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	r := &ChromedpRenderer{
		config: config,
		logger: logger.Named("chart"),
		now:    time.Now,
	}

	if config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
		return r, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.WindowSize(config.Layout.Width, config.Layout.Height),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// RenderBarChart writes c as a PNG into the output directory and returns its path
func (r *ChromedpRenderer) RenderBarChart(ctx context.Context, c report.BarChart) (string, error) {
	svg, err := RenderSVG(c, r.config.Layout)
	if err != nil {
		return "", err
	}
	html := pageHTML(svg)

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// the browser context does not derive from ctx, so stop it when ctx ends
	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, r.config.Timeout)
	defer timeoutCancel()
	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	var png []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.Screenshot("#chart", &png, chromedp.NodeVisible, chromedp.ByID),
	)
	if err != nil {
		if errors.Is(browserCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v: %v", ErrRenderTimeout, r.config.Timeout, err)
		}
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	path := filepath.Join(r.config.OutputDir, fileName(c.Title, r.now()))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	r.logger.Debug("chart rendered", zap.String("path", path), zap.Int("bytes", len(png)))
	return path, nil
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>html,body{margin:0;padding:0;background:#fff}</style></head>
<body>{{.}}</body></html>`))

func pageHTML(svg []byte) string {
	var b strings.Builder
	// svg comes from our own template with every value already escaped
	_ = pageTemplate.Execute(&b, template.HTML(svg))
	return b.String()
}

// fileName turns a chart title into "sales-insights-all-time-20261015-090000.png"
func fileName(title string, at time.Time) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "chart"
	}
	return fmt.Sprintf("%s-%s.png", slug, at.Format("20060102-150405"))
}

var _ report.ChartRenderer = (*ChromedpRenderer)(nil)
