package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/assoportal/pollengine/internal/app"
	"github.com/assoportal/pollengine/internal/auth"
	"github.com/assoportal/pollengine/internal/logger"
)

var (
	version = "dev"
)

func main() {
	port := flag.Int("port", 8081, "HTTP server port")
	dbPath := flag.String("db", "polls.db", "SQLite database path")
	adminPw := flag.String("adminpw", "", "Admin password (auto-generated if not set)")
	secret := flag.String("secret", "", "Session signing secret shared with the portal (or POLLENGINE_SECRET)")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `PollEngine - Community Association Poll Service

Usage:
  pollengine [options]

Options:
  -port int      HTTP server port (default 8081)
  -db string     SQLite database path (default "polls.db")
  -adminpw str   Admin password (auto-generated if not set)
  -secret str    Session signing secret shared with the portal
                 (falls back to the POLLENGINE_SECRET environment variable)
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -version       Show version and exit
  -help          Show this help message

Examples:
  pollengine                           # Run on port 8081 with polls.db
  pollengine -port 8080                # Run on port 8080
  pollengine -db /data/polls.db        # Use custom database path
  pollengine -adminpw secret123        # Use specific admin password

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("pollengine %s\n", version)
		os.Exit(0)
	}

	signingSecret := *secret
	if signingSecret == "" {
		signingSecret = os.Getenv("POLLENGINE_SECRET")
	}
	if signingSecret == "" {
		log.Fatal("No session secret configured: set -secret or POLLENGINE_SECRET")
	}

	password := *adminPw
	if password == "" {
		password = auth.GeneratePassword()
	}
	sessionAuth, err := auth.New([]byte(signingSecret), password)
	if err != nil {
		log.Fatal("Failed to initialize auth:", err)
	}

	appLog := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	a, err := app.New(appLog, *dbPath, sessionAuth)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	addr := fmt.Sprintf(":%d", *port)
	appLog.Info("Admin password", "password", password)

	if err := a.Run(addr); err != nil {
		log.Fatal(err)
	}
}
