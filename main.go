// Command clompanion runs the chat gateway and its terminal client.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xiaot623/clompanion/internal/adapter/contextdoc"
	"github.com/xiaot623/clompanion/internal/adapter/llm"
	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/policy"
	"github.com/xiaot623/clompanion/internal/repository"
	"github.com/xiaot623/clompanion/internal/service"
	transport "github.com/xiaot623/clompanion/internal/transport/http"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "clompanion",
		Short: "Session-based chat gateway in front of a text-generation service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(config.Load())
		},
	}
}

func runServe(cfg *config.Config) error {
	log.Printf("Starting clompanion...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Store backend: %s", cfg.StoreBackend)
	log.Printf("LLM provider: %s", cfg.LLMProvider)
	if cfg.ContextURL != "" || cfg.ContextFile != "" {
		log.Printf("Context document: url=%q file=%q", cfg.ContextURL, cfg.ContextFile)
	}

	// Initialize store
	store, err := repository.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	// Initialize generator
	generator, err := llm.NewGenerator(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	svc := service.New(store, generator, contextdoc.New(cfg), cfg, policyEngine)
	e := transport.NewServer(svc, cfg)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	log.Printf("HTTP server started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down clompanion...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("Clompanion stopped")
	return nil
}
