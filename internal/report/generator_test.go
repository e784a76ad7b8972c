package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/ignite/casedeck/internal/config"
)

type fakeCapturer struct {
	mu        sync.Mutex
	calls     int
	active    int
	maxActive int
	delay     time.Duration
	img       []byte
	err       error
}

func (f *fakeCapturer) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

type fakeDescriber struct {
	mu      sync.Mutex
	prompts []string
	text    string
	err     error
}

func (f *fakeDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeDetector struct{ result bool }

func (f *fakeDetector) Detect(ctx context.Context, pageURL string) bool { return f.result }

type fakeTemplates struct {
	data []byte
	err  error
}

func (f *fakeTemplates) Load(ctx context.Context) ([]byte, error) { return f.data, f.err }

func testGenerator(t *testing.T, capturer Capturer, describer Describer, detector Detector, workers int) *Generator {
	t.Helper()
	return NewGenerator(
		&fakeTemplates{data: buildTestTemplate(t)},
		capturer, describer, detector,
		config.ReportConfig{Workers: workers, CaptureTimeoutSeconds: 5},
		config.ScreenshotConfig{Width: 120, Height: 90},
	)
}

func genCases(n int) []Case {
	cases := make([]Case, n)
	for i := range cases {
		cases[i] = Case{
			Domain:      fmt.Sprintf("https://site%d.example.com", i),
			DisplayName: fmt.Sprintf("Site %d", i),
			Language:    LangJapanese,
			SampleCount: 1,
		}
	}
	return cases
}

func countSlides(t *testing.T, deck []byte) int {
	t.Helper()
	n := 0
	for name := range unzipParts(t, deck) {
		if slidePartRe.MatchString(name) {
			n++
		}
	}
	return n
}

func TestGenerateAllOK(t *testing.T) {
	capturer := &fakeCapturer{img: testPNG(t, 4, 4)}
	describer := &fakeDescriber{text: "Generated description."}
	g := testGenerator(t, capturer, describer, &fakeDetector{result: true}, 2)

	cases := genCases(3)
	deck, artifacts, err := g.Generate(context.Background(), cases)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if got := countSlides(t, deck); got != 3 {
		t.Errorf("deck has %d slides, want 3", got)
	}
	if len(artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(artifacts))
	}
	for i, a := range artifacts {
		if a.Index != i {
			t.Errorf("artifact %d has index %d", i, a.Index)
		}
		if a.Case.Domain != cases[i].Domain {
			t.Errorf("artifact %d is for %s, want %s", i, a.Case.Domain, cases[i].Domain)
		}
		if a.Status() != "ok" {
			t.Errorf("artifact %d status = %s, want ok", i, a.Status())
		}
		if !a.HasEmbed {
			t.Errorf("artifact %d lost the embed flag", i)
		}
		if a.Description != "Generated description." {
			t.Errorf("artifact %d description = %q", i, a.Description)
		}
	}
	if len(describer.prompts) != 3 {
		t.Errorf("describer called %d times, want 3", len(describer.prompts))
	}
}

func TestGenerateScreenshotFallback(t *testing.T) {
	capturer := &fakeCapturer{err: errors.New("render farm down")}
	describer := &fakeDescriber{text: "Still described."}
	g := testGenerator(t, capturer, describer, &fakeDetector{}, 2)

	_, artifacts, err := g.Generate(context.Background(), genCases(1))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	a := artifacts[0]
	if a.Status() != "partial" {
		t.Errorf("status = %s, want partial", a.Status())
	}
	if !a.Placeholder {
		t.Error("artifact not marked as placeholder")
	}
	if a.Screenshot.OK || a.Screenshot.Reason == "" {
		t.Errorf("screenshot result = %+v", a.Screenshot)
	}
	if a.Description != "Still described." {
		t.Errorf("description = %q, the describe leg should be unaffected", a.Description)
	}

	img, err := png.Decode(bytes.NewReader(a.Image))
	if err != nil {
		t.Fatalf("fallback image is not a PNG: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 120 || got.Dy() != 90 {
		t.Errorf("placeholder bounds = %v, want the configured 120x90", got)
	}
}

func TestGenerateDescribeFallback(t *testing.T) {
	capturer := &fakeCapturer{img: testPNG(t, 4, 4)}
	describer := &fakeDescriber{err: errors.New("quota exhausted")}
	g := testGenerator(t, capturer, describer, &fakeDetector{}, 2)

	_, artifacts, err := g.Generate(context.Background(), genCases(1))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	a := artifacts[0]
	if a.Status() != "partial" {
		t.Errorf("status = %s, want partial", a.Status())
	}
	if !a.Fallback {
		t.Error("artifact not marked as fallback")
	}
	if a.Description != FallbackDescription(LangJapanese) {
		t.Errorf("description = %q, want the fixed fallback", a.Description)
	}
	if a.Describe.OK || a.Describe.Reason == "" {
		t.Errorf("describe result = %+v", a.Describe)
	}
	if a.Placeholder {
		t.Error("screenshot leg should be unaffected")
	}
}

func TestGenerateDegraded(t *testing.T) {
	capturer := &fakeCapturer{err: errors.New("render farm down")}
	describer := &fakeDescriber{err: errors.New("quota exhausted")}
	g := testGenerator(t, capturer, describer, &fakeDetector{}, 2)

	deck, artifacts, err := g.Generate(context.Background(), genCases(1))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if countSlides(t, deck) != 1 {
		t.Error("degraded case still must produce its slide")
	}

	a := artifacts[0]
	if a.Status() != "degraded" {
		t.Errorf("status = %s, want degraded", a.Status())
	}
	if a.Image == nil {
		t.Error("degraded artifact has no image at all")
	}
	if a.Description == "" {
		t.Error("degraded artifact has no description at all")
	}
}

func TestGenerateTemplateFailure(t *testing.T) {
	capturer := &fakeCapturer{img: testPNG(t, 4, 4)}
	g := NewGenerator(
		&fakeTemplates{err: &TemplateUnavailableError{Status: 404}},
		capturer, &fakeDescriber{text: "x"}, &fakeDetector{},
		config.ReportConfig{Workers: 2, CaptureTimeoutSeconds: 5},
		config.ScreenshotConfig{Width: 120, Height: 90},
	)

	_, _, err := g.Generate(context.Background(), genCases(2))
	var tue *TemplateUnavailableError
	if !errors.As(err, &tue) {
		t.Fatalf("error %v is not a TemplateUnavailableError", err)
	}
	if capturer.calls != 0 {
		t.Errorf("capture ran %d times despite a missing template", capturer.calls)
	}
}

func TestGenerateNoCases(t *testing.T) {
	g := testGenerator(t, &fakeCapturer{}, &fakeDescriber{}, &fakeDetector{}, 2)
	if _, _, err := g.Generate(context.Background(), nil); err == nil {
		t.Fatal("Generate() accepted zero cases")
	}
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := testGenerator(t, &fakeCapturer{img: testPNG(t, 4, 4)}, &fakeDescriber{text: "x"}, &fakeDetector{}, 2)
	if _, _, err := g.Generate(ctx, genCases(2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGenerateBoundsWorkers(t *testing.T) {
	capturer := &fakeCapturer{img: testPNG(t, 4, 4), delay: 20 * time.Millisecond}
	g := testGenerator(t, capturer, &fakeDescriber{text: "x"}, &fakeDetector{}, 2)

	if _, _, err := g.Generate(context.Background(), genCases(6)); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if capturer.maxActive > 2 {
		t.Errorf("%d captures ran at once, want at most 2", capturer.maxActive)
	}
	if capturer.calls != 6 {
		t.Errorf("capture ran %d times, want 6", capturer.calls)
	}
}
