package report

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/casedeck/internal/config"
)

// Detector reports whether a page carries the shoppable-video embed tag.
type Detector interface {
	Detect(ctx context.Context, pageURL string) bool
}

// TemplateLoader yields the deck template bytes.
type TemplateLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// Generator turns ranked cases into a finished deck. Capture steps are
// best-effort per case; only a missing template aborts the run.
type Generator struct {
	templates TemplateLoader
	capturer  Capturer
	describer Describer
	detector  Detector
	prompts   *PromptBuilder

	workers        int
	captureTimeout time.Duration
	width          int
	height         int
}

// NewGenerator wires the capture providers into a bounded worker pool.
// A non-positive worker count selects the default of 4.
func NewGenerator(templates TemplateLoader, capturer Capturer, describer Describer, detector Detector, cfg config.ReportConfig, shot config.ScreenshotConfig) *Generator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Generator{
		templates:      templates,
		capturer:       capturer,
		describer:      describer,
		detector:       detector,
		prompts:        NewPromptBuilder(),
		workers:        workers,
		captureTimeout: cfg.CaptureTimeout(),
		width:          shot.Width,
		height:         shot.Height,
	}
}

// Generate builds one slide per case and returns the PPTX bytes along
// with the per-case artifacts for audit logging.
func (g *Generator) Generate(ctx context.Context, cases []Case) ([]byte, []Artifact, error) {
	if len(cases) == 0 {
		return nil, nil, fmt.Errorf("no cases to render")
	}

	template, err := g.templates.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[report] generating %d slides (workers=%d)", len(cases), g.workers)
	artifacts := g.produce(ctx, cases)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var ok, partial, degraded int
	for _, a := range artifacts {
		switch a.Status() {
		case "ok":
			ok++
		case "partial":
			partial++
		default:
			degraded++
		}
	}
	log.Printf("[report] deck assembled: %d ok, %d partial, %d degraded", ok, partial, degraded)

	deck, err := BuildDeck(template, artifacts)
	if err != nil {
		return nil, nil, fmt.Errorf("assembling deck: %w", err)
	}
	return deck, artifacts, nil
}

// produce runs the per-case capture work through a bounded pool. Results
// land at their case's index, so slide order matches rank order no
// matter which worker finishes first.
func (g *Generator) produce(ctx context.Context, cases []Case) []Artifact {
	artifacts := make([]Artifact, len(cases))

	pool := new(errgroup.Group)
	pool.SetLimit(g.workers)
	for i, c := range cases {
		pool.Go(func() error {
			artifacts[i] = g.buildArtifact(ctx, i, c)
			return nil
		})
	}
	pool.Wait()

	return artifacts
}

// buildArtifact resolves one case: screenshot in parallel with embed
// detection plus description. The two legs fail independently; a failed
// screenshot must not cost the case its description, or vice versa.
func (g *Generator) buildArtifact(ctx context.Context, idx int, c Case) Artifact {
	a := Artifact{Case: c, Index: idx}

	cctx, cancel := context.WithTimeout(ctx, g.captureTimeout)
	defer cancel()

	var (
		img     []byte
		imgErr  error
		embed   bool
		desc    string
		descErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		img, imgErr = g.capturer.Capture(cctx, c.Domain)
	}()
	go func() {
		defer wg.Done()
		embed = g.detector.Detect(cctx, c.Domain)
		prompt, err := g.prompts.Build(c, embed)
		if err != nil {
			descErr = err
			return
		}
		desc, descErr = g.describer.Describe(cctx, prompt)
	}()
	wg.Wait()

	a.HasEmbed = embed

	if imgErr == nil {
		a.Image = ScaleToWidth(img, g.width)
		a.Screenshot = capOK()
	} else {
		log.Printf("[report] screenshot failed for %s: %v", c.Domain, imgErr)
		a.Screenshot = capFail(imgErr)
		ph, phErr := PlaceholderImage(c.Host(), g.width, g.height)
		if phErr != nil {
			log.Printf("[report] placeholder failed for %s: %v", c.Domain, phErr)
		} else {
			a.Image = ph
			a.Placeholder = true
		}
	}

	if descErr == nil {
		a.Description = desc
		a.Describe = capOK()
	} else {
		log.Printf("[report] description failed for %s: %v", c.Domain, descErr)
		a.Describe = capFail(descErr)
		a.Description = FallbackDescription(c.Language)
		a.Fallback = true
	}

	return a
}
