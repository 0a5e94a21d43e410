// Package browser implements the C5.4 Rasterizer port: turning a CV's
// Content into a downloadable PDF or DOCX by driving a headless Chrome
// instance over the DevTools protocol (chromedp).
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/cvenhancer/core/internal/domain"
)

// Rasterizer implements domain.Rasterizer. A configured wsURL connects to an
// already-running remote Chrome (e.g. a browserless/chrome sidecar); an
// empty wsURL launches a local headless instance, with Chrome's sandbox
// disabled, on first use.
type Rasterizer struct {
	wsURL   string
	timeout time.Duration

	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// New constructs a Rasterizer. wsURL and timeout come straight from
// config.Config's ChromeWSURL/ChromeRenderTimeout fields.
func New(wsURL string, timeout time.Duration) *Rasterizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Rasterizer{wsURL: wsURL, timeout: timeout}
}

// allocator lazily builds the ExecAllocator/RemoteAllocator context, reused
// across Render calls so a local Chrome process isn't relaunched per job.
func (r *Rasterizer) allocator() context.Context {
	if r.allocCtx != nil {
		return r.allocCtx
	}
	if r.wsURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.wsURL)
		return r.allocCtx
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r.allocCtx
}

// Close releases the allocator, stopping any locally launched Chrome process.
func (r *Rasterizer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

// Render implements domain.Rasterizer.
func (r *Rasterizer) Render(ctx domain.Context, content domain.Content, format domain.OutputFormat, tmpl domain.TemplateID, custom domain.Customization) ([]byte, domain.GenerationStats, error) {
	start := time.Now()

	html, err := renderHTML(tmpl, content, custom)
	if err != nil {
		return nil, domain.GenerationStats{}, fmt.Errorf("browser: render template: %w", err)
	}

	stats := domain.GenerationStats{WordCount: countWords(html)}

	switch format {
	case domain.FormatDOCX:
		out, err := buildDOCX(content)
		if err != nil {
			return nil, domain.GenerationStats{}, fmt.Errorf("browser: build docx: %w", err)
		}
		stats.PageCount = 1
		stats.ProcessingTimeMs = time.Since(start).Milliseconds()
		return out, stats, nil

	case domain.FormatPDF:
		out, pages, err := r.printPDF(ctx, html)
		if err != nil {
			return nil, domain.GenerationStats{}, fmt.Errorf("browser: print pdf: %w", err)
		}
		stats.PageCount = pages
		stats.ProcessingTimeMs = time.Since(start).Milliseconds()
		return out, stats, nil

	default:
		return nil, domain.GenerationStats{}, domain.NewError(domain.CodeInvalidArgument, fmt.Sprintf("unsupported output format %q", format), 400)
	}
}

func (r *Rasterizer) printPDF(ctx context.Context, html string) ([]byte, int, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.allocator())
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, r.timeout)
	defer timeoutCancel()

	var pdfBuf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		setHTML(html),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithMarginTop(0.4).WithMarginBottom(0.4).
				WithMarginLeft(0.4).WithMarginRight(0.4).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, 0, err
	}
	return pdfBuf, estimatePageCount(pdfBuf), nil
}

// setHTML loads html directly into the page via Page.setDocumentContent,
// avoiding a data: URL size limit and any navigation-triggered fetch.
func setHTML(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		frameTree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
	})
}

func countWords(html string) int {
	n := 0
	inTag := false
	word := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			word = false
		case r == '>':
			inTag = false
		case inTag:
		case r == ' ' || r == '\n' || r == '\t':
			word = false
		default:
			if !word {
				n++
				word = true
			}
		}
	}
	return n
}

// estimatePageCount counts PDF page objects via the "/Type /Page" marker
// rather than "/Type /Pages" (the page-tree root). Good enough for display
// purposes; chromedp/cdproto doesn't surface an exact count directly.
func estimatePageCount(pdf []byte) int {
	s := string(pdf)
	n := strings.Count(s, "/Type/Page") + strings.Count(s, "/Type /Page")
	pages := strings.Count(s, "/Type/Pages") + strings.Count(s, "/Type /Pages")
	n -= pages
	if n < 1 {
		return 1
	}
	return n
}
