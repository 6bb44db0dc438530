// bazarle-tui - A terminal client for Bazarle marketplace messaging.
//
// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/bazarle/bazarle-tui/internal/api"
	appchat "github.com/bazarle/bazarle-tui/internal/chat"
	"github.com/bazarle/bazarle-tui/internal/config"
	"github.com/bazarle/bazarle-tui/internal/realtime"
	"github.com/bazarle/bazarle-tui/internal/session"
	"github.com/bazarle/bazarle-tui/internal/storage"
	"github.com/bazarle/bazarle-tui/internal/ui"
	"github.com/bazarle/bazarle-tui/internal/ui/chat"
	"github.com/bazarle/bazarle-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for pushing realtime events into the UI loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Printf("bazarle-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "bazarle-tui requires an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.API.Token == "" {
		fmt.Fprintln(os.Stderr, "No API token configured.")
		fmt.Fprintln(os.Stderr, "Set BAZARLE_TOKEN or add it to ~/.bazarle/config.toml:")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "  [api]")
		fmt.Fprintln(os.Stderr, "  token = \"...\"")
		os.Exit(1)
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI wires the full stack and runs the Bubble Tea program until exit.
func runTUI(cfg *config.Config) error {
	theme := styles.NewTheme()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
	})

	// The current user's identity comes from the token.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	me, err := client.Me(ctx)
	cancel()
	if err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("token rejected; log in again and update ~/.bazarle/config.toml")
		}
		return fmt.Errorf("could not reach %s: %w", cfg.API.BaseURL, err)
	}

	sess := session.New(*me, cfg.API.Token)

	// Local history cache. Optional: the app runs fully without it.
	var cache *storage.Cache
	if cfg.Cache.Enabled {
		cachePath := cfg.Cache.Path
		if cachePath == "" {
			cachePath, err = storage.DefaultPath()
		}
		if err == nil {
			cache, err = storage.Open(cachePath)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: message cache unavailable: %v\n", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Persistent channel. Incoming events become Bubble Tea messages; the
	// handlers run on the realtime goroutine so they only ever call Send.
	rt := realtime.NewClient(&realtime.ClientConfig{
		URL:   cfg.API.SocketURL,
		Token: cfg.API.Token,
	}, realtime.Handlers{
		OnConnect: func() {
			sendToProgram(chat.ConnectionChangedMsg{Connected: true})
		},
		OnDisconnect: func(err error) {
			sendToProgram(chat.ConnectionChangedMsg{Connected: false, Err: err})
		},
		OnMessage: func(payload *realtime.MessagePayload) {
			msg := payload.Message
			sendToProgram(chat.MessageReceivedMsg{Message: &msg})
		},
		OnSeen: func(by string) {
			sendToProgram(chat.SeenReceivedMsg{By: by})
		},
		OnTyping: func(from string) {
			sendToProgram(chat.TypingReceivedMsg{From: from, Active: true})
		},
		OnStopTyping: func(from string) {
			sendToProgram(chat.TypingReceivedMsg{From: from, Active: false})
		},
	})

	typing := appchat.NewTypingMonitor(rt, sess.SelfID())

	app := ui.NewApp(theme, sess, client, cache, typing)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Live config edits: a rotated token applies to subsequent requests.
	// Endpoint and cache changes need a restart. Invalid edits are dropped
	// inside the watcher.
	if path, err := config.Path(); err == nil {
		watcher, werr := config.NewWatcher(path, func(updated *config.Config) {
			client.SetToken(updated.API.Token)
			sess.SetToken(updated.API.Token)
		})
		if werr == nil {
			if werr = watcher.Watch(); werr != nil {
				watcher.Close()
			} else {
				defer watcher.Close()
			}
		}
		if werr != nil {
			fmt.Fprintf(os.Stderr, "warning: config reload disabled: %v\n", werr)
		}
	}

	rtCtx, rtCancel := context.WithCancel(context.Background())
	defer rtCancel()
	go rt.Run(rtCtx)
	defer rt.Close()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running bazarle-tui: %w", err)
	}
	return nil
}
