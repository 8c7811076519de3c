package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coolestnick/Shard-Flip/cmd"
	"github.com/coolestnick/Shard-Flip/config"
	"github.com/coolestnick/Shard-Flip/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := handleTokenCommand(); err != nil {
			log.Fatal("Token error: ", err)
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "simulate" {
		if err := handleSimulateCommand(); err != nil {
			log.Fatal("Simulation error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	run := cmd.Run
	if len(os.Args) > 1 && os.Args[1] == "mirror" {
		run = cmd.RunMirror
	}

	if err := run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

// handleSimulateCommand runs `simulate [trials] [multiplier]`
func handleSimulateCommand() error {
	trials, multiplier := 100000, int64(2)
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			return fmt.Errorf("invalid trials %q: %w", os.Args[2], err)
		}
		trials = n
	}
	if len(os.Args) > 3 {
		m, err := strconv.ParseInt(os.Args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid multiplier %q: %w", os.Args[3], err)
		}
		multiplier = m
	}
	return cmd.RunSimulation(os.Stdout, trials, multiplier)
}

// handleTokenCommand runs `token <wallet> [ttl]`
func handleTokenCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: shard-flip token <wallet> [ttl]")
	}
	var ttl time.Duration
	if len(os.Args) > 3 {
		d, err := time.ParseDuration(os.Args[3])
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", os.Args[3], err)
		}
		ttl = d
	}
	return cmd.IssueToken(os.Stdout, config.Get(), os.Args[2], ttl)
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: shard-flip migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
