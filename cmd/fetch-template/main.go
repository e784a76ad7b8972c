// Command fetch-template downloads the presentation template into the local
// cache so server startup and the first report request don't have to. Run it
// from a deploy hook or whenever the template deck changes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/report"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=========================================================")
	fmt.Println(" Template Prefetch")
	fmt.Println("=========================================================")
	fmt.Printf("Export URL:  %s\n", cfg.Template.ExportURL())
	fmt.Printf("Cache path:  %s\n", cfg.Template.CachePath)
	fmt.Println("---------------------------------------------------------")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	data, err := report.NewTemplateSource(cfg.Template).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		fmt.Fprintln(os.Stderr, "Hint: the deck must allow link viewing (anyone with the link).")
		os.Exit(1)
	}

	fmt.Printf("OK: template ready, %d bytes\n", len(data))
}
