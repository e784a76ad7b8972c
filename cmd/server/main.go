package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/casedeck/internal/api"
	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/reference"
	"github.com/ignite/casedeck/internal/report"
	"github.com/ignite/casedeck/internal/session"
)

// version is stamped via -ldflags at release time.
var version = "dev"

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  CASEDECK Server (cmd/server/main.go)                      ║")
	log.Println("║  Performance analysis + case study deck generation API    ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	capturer, closeCapturer := buildCapturer(cfg.Screenshot)
	defer closeCapturer()

	describer, err := buildDescriber(context.Background(), cfg.Describe)
	if err != nil {
		log.Fatalf("Failed to initialize describer: %v", err)
	}

	templates := report.NewTemplateSource(cfg.Template)
	warmTemplate(templates)

	generator := report.NewGenerator(templates, capturer, describer,
		report.NewTagDetector(), cfg.Report, cfg.Screenshot)

	refCache := reference.NewCache(reference.NewFetcher(cfg.Reference))

	sessions := session.NewStore(cfg.Session)
	sessions.StartSweeper(time.Minute)
	defer sessions.Close()

	handlers := api.NewHandlers(cfg, sessions, refCache, generator, version)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// buildCapturer picks the screenshot provider. The browser capturer owns a
// headless Chrome instance, so its cleanup is handed back to main.
func buildCapturer(cfg config.ScreenshotConfig) (report.Capturer, func()) {
	switch cfg.Provider {
	case "browser", "rod":
		c := report.NewBrowserCapturer(cfg)
		log.Println("[main] screenshot provider: headless browser")
		return c, func() {
			if err := c.Close(); err != nil {
				log.Printf("[main] closing browser: %v", err)
			}
		}
	default:
		log.Println("[main] screenshot provider: screenshot API")
		return report.NewAPICapturer(cfg), func() {}
	}
}

// buildDescriber picks the LLM provider and wraps it in the client-side
// rate limiter.
func buildDescriber(ctx context.Context, cfg config.DescribeConfig) (report.Describer, error) {
	var inner report.Describer
	switch cfg.Provider {
	case "bedrock":
		b, err := report.NewBedrockDescriber(ctx, cfg.Bedrock)
		if err != nil {
			return nil, err
		}
		log.Printf("[main] describe provider: bedrock (%s)", cfg.Bedrock.ModelID)
		inner = b
	default:
		inner = report.NewOpenAIDescriber(cfg.OpenAI)
		log.Printf("[main] describe provider: openai (%s)", cfg.OpenAI.Model)
	}
	return report.NewRateLimitedDescriber(inner, cfg.RequestsPerMinute), nil
}

// warmTemplate primes the template cache so the first report request
// doesn't pay for the download. Boot continues if it fails; report
// requests load on demand and surface the error themselves.
func warmTemplate(templates *report.TemplateSource) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := templates.Load(ctx); err != nil {
			log.Printf("[main] template warm-up failed (reports will retry): %v", err)
		}
	}()
}
