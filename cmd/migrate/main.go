// migrate runs DB migrations from embedded SQL against DATABASE_PATH. The server also runs
// them (plus column widening) at start; this is for manual up/down.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"codebrick-site/backend/internal/config"
	"codebrick-site/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabasePath, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Printf("migrate: %s complete for %s\n", *direction, cfg.DatabasePath)
}
