package main

import (
	"log"

	"fraglog/internal/app"
	_ "fraglog/migrations"
)

// Build-time variables injected by GoReleaser via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	// Create application with version information injected at build time
	application, err := app.NewWithVersion(Version, Commit, Date)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// Setup registers hooks, routes and jobs
	if err := application.Setup(); err != nil {
		log.Fatalf("Failed to setup app: %v", err)
	}

	// Start registers default commands (serve, superuser) and executes RootCmd
	if err := application.Start(); err != nil {
		log.Fatal(err)
	}
}
