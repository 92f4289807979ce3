package main

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

// Applies the SQL migrations under migrations/ against DB_URL.
// Usage: migrate [up|down|version], defaulting to up.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	dir, err := findMigrationsDir()
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.New("file://"+dir, dbURL)
	if err != nil {
		log.Fatalf("Failed to open migrations at %s: %v", dir, err)
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		run(m.Up, "Migrations applied")
	case "down":
		run(m.Down, "Migrations rolled back")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Schema version %d (dirty=%t)", version, dirty)
	default:
		log.Fatalf("Unknown command %q, expected up, down or version", command)
	}
}

func run(step func() error, done string) {
	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("Schema already up to date")
			return
		}
		log.Fatal(err)
	}
	log.Println(done)
}

// findMigrationsDir walks up from the working directory, then falls back to
// paths relative to the binary, so the tool works from the repo root, a
// package directory, or a deployed artifact.
func findMigrationsDir() (string, error) {
	var roots []string
	if cwd, err := os.Getwd(); err == nil {
		dir := cwd
		for range 6 {
			roots = append(roots, dir)
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		roots = append(roots, exeDir, filepath.Dir(exeDir), filepath.Dir(filepath.Dir(exeDir)))
	}

	for _, root := range roots {
		candidate := filepath.Join(root, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", errors.New("migrations directory not found")
}
