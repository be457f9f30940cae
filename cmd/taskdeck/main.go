// cmd/taskdeck/main.go
//
// Terminal client for the task store. Wires config → journal → gateway →
// engine → TUI and hands control to bubbletea.

package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/gateway"
	"github.com/taskdeck/taskdeck/internal/journal"
	"github.com/taskdeck/taskdeck/internal/tui"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the client config file")
	serverURL := flag.String("server", "", "override the server base URL")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.BaseURL = *serverURL
	}

	jrnl, err := journal.New(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		os.Exit(1)
	}
	jrnl.Info("Session opened · server %s", cfg.Server.BaseURL)

	client := gateway.NewClient(cfg.Server.BaseURL, gateway.WithTimeout(cfg.Server.RequestTimeout()))
	eng := engine.New(client, engine.WithLogger(jrnl))

	p := tea.NewProgram(
		tui.NewApp(eng, jrnl),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskdeck.yaml"
	}
	return home + "/.taskdeck/config.yaml"
}
