// Command chatmesh runs an interactive terminal chat session against the
// configured model provider, with the builtin tool set and durable
// conversation persistence.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/hupe1980/chatmesh"
	"github.com/hupe1980/chatmesh/config"
)

func main() {
	userID := flag.String("user", "local", "user ID owning the conversation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatmesh: %v\n", err)
		os.Exit(1)
	}

	mesh, err := chatmesh.New(*userID, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatmesh: %v\n", err)
		os.Exit(1)
	}
	defer mesh.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("chatmesh ready (user %s, provider %s). Type 'exit' to quit, 'stats' or 'tools' for info.\n",
		*userID, cfg.Provider)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "exit", "quit":
			fmt.Println("bye")
			return
		case "stats":
			printStats(mesh)
			continue
		case "tools":
			printTools(mesh)
			continue
		case "history":
			printHistory(ctx, mesh)
			continue
		}

		reply, err := mesh.Chat(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nbye")
				return
			}
			fmt.Fprintf(os.Stderr, "chatmesh: %v\n", err)
			continue
		}

		fmt.Println(reply)
	}
}

func printStats(mesh *chatmesh.ChatMesh) {
	stats := mesh.Stats()
	fmt.Printf("session %s\n", stats.SessionID)
	fmt.Printf("  started:       %s\n", stats.SessionStart.Format("2006-01-02 15:04:05"))
	fmt.Printf("  last activity: %s\n", stats.LastActivity.Format("2006-01-02 15:04:05"))
	fmt.Printf("  messages:      %d\n", stats.MessageCount)
	fmt.Printf("  tools:         %d\n", stats.ToolCount)
	if len(stats.ExtensionKeys) > 0 {
		fmt.Printf("  tool state:    %s\n", strings.Join(stats.ExtensionKeys, ", "))
	}
}

func printTools(mesh *chatmesh.ChatMesh) {
	catalog := mesh.Tools()

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		md := catalog[name]
		fmt.Printf("  %-20s %s (v%s, %s)\n", name, md.Description, md.Version, md.Category)
	}
}

func printHistory(ctx context.Context, mesh *chatmesh.ChatMesh) {
	for _, msg := range mesh.History(ctx, 20) {
		fmt.Printf("  [%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.Sender, msg.Text)
	}
}
