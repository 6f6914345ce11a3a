package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"bilancio/internal/cli"
	"bilancio/internal/mcp"
	"bilancio/internal/storage"
)

// The MCP transport runs over stdio, so nothing here may write to
// stdout; diagnostics go to stderr.
func main() {
	cli.LoadEnvFile()

	dbPath := os.Getenv("SQLITE_DB_PATH")
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "SQLITE_DB_PATH environment variable is required")
		fmt.Fprintln(os.Stderr, "Set it to the path of the bilancio SQLite database")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	svc := mcp.NewService(repo)
	s := mcp.NewServer(svc)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
