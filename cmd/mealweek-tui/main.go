package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/dukerupert/mealweek/internal/client"
	"github.com/dukerupert/mealweek/internal/tui"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	server := flag.String("server", envOr("MEALWEEK_SERVER", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("MEALWEEK_TOKEN"), "bearer token (or MEALWEEK_TOKEN)")
	groupID := flag.Int64("group", 0, "group id; omit for your personal plan")
	week := flag.String("week", "", "any date in the week to open (YYYY-MM-DD); default this week")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: a token is required (-token or MEALWEEK_TOKEN)")
		os.Exit(2)
	}

	api := client.New(*server, *token)
	p := tea.NewProgram(tui.New(api, client.Scope{Week: *week, GroupID: *groupID}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
