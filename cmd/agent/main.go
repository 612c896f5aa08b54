// agent hosts an A2A agent over the protocol bridge: an agent card at
// /.well-known/agent-card, a streaming task endpoint, and the webhook
// receiver the negotiation backend delivers buyer messages to.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tetsy-hub/internal/a2a"
	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/bridge"
	"tetsy-hub/internal/config"
	"tetsy-hub/internal/ebay"
	"tetsy-hub/internal/intent"
	"tetsy-hub/internal/middleware"
	"tetsy-hub/internal/runtime"
	"tetsy-hub/internal/seller"
	"tetsy-hub/internal/tetsy"
	"tetsy-hub/internal/trace"
)

var (
	host     string
	port     int
	platform string
)

func main() {
	root := &cobra.Command{
		Use:           "agent",
		Short:         "Run an A2A agent over the protocol bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&host, "host", "localhost", "host to bind and advertise")
	root.PersistentFlags().IntVar(&port, "port", 10001, "port to listen on")

	listing := &cobra.Command{
		Use:   "listing",
		Short: "Run the listing agent: posts listings and auto-negotiates offers",
		RunE:  runListing,
	}
	listing.Flags().StringVar(&platform, "platform", "tetsy", "marketplace to publish to (tetsy or ebay)")

	hostCmd := &cobra.Command{
		Use:   "host",
		Short: "Run the LLM host agent against an OpenAI-compatible model",
		RunE:  runHost,
	}

	root.AddCommand(listing, hostCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runListing(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	backend := tetsy.NewClient(cfg.TetsyBaseURL)

	var market adapter.Marketplace
	switch platform {
	case "tetsy":
		market = tetsy.NewMarketplace(backend)
	case "ebay":
		if !cfg.EbayEnabled() {
			return fmt.Errorf("eBay credentials not configured")
		}
		market = ebay.NewMarketplace(
			ebay.NewClient(cfg.Credentials.EbayClientID, cfg.Credentials.EbayClientSecret),
			cfg.Credentials.EbayMarketplace)
	default:
		return fmt.Errorf("unknown platform %q", platform)
	}

	rt := runtime.NewListingRuntime(intent.PatternClassifier{}, market, cfg.SellerID)

	// The automaton answers negotiation webhooks for the same seller.
	automaton := seller.NewAutomaton(cfg.SellerID, backend, market, nil, logger)

	card := agentCard(rt.Name(),
		"Posts marketplace listings from natural language and negotiates incoming offers automatically.",
		a2a.AgentSkill{
			ID:          "post_listing",
			Name:        "Post listing",
			Description: "Create and publish a marketplace listing from a natural-language request.",
			Tags:        []string{"listing", "marketplace"},
			Examples:    []string{`Post a listing for 'Handmade Vase' with description 'Blue ceramic' at price 100`},
		})

	return serve(bridge.NewServer(bridge.NewExecutor(rt, logger), card, automaton, logger), logger)
}

func runHost(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.LLMEnabled() {
		return fmt.Errorf("OPENAI_API_KEY not configured")
	}

	rt := runtime.NewOpenAIRuntime("host-agent",
		cfg.Credentials.OpenAIAPIKey,
		cfg.Credentials.OpenAIBaseURL,
		cfg.Credentials.OpenAIModel,
		"You are a shopping assistant coordinating marketplace negotiations on the user's behalf.")

	card := agentCard(rt.Name(),
		"LLM host agent that routes shopping and negotiation requests to specialty agents.",
		a2a.AgentSkill{
			ID:          "assist",
			Name:        "Shopping assistant",
			Description: "Answer shopping questions and delegate marketplace work.",
			Tags:        []string{"shopping", "assistant"},
		})

	return serve(bridge.NewServer(bridge.NewExecutor(rt, logger), card, nil, logger), logger)
}

// agentCard assembles the discovery descriptor for this process.
func agentCard(name, description string, skills ...a2a.AgentSkill) a2a.AgentCard {
	return a2a.AgentCard{
		Name:            name,
		Description:     description,
		URL:             fmt.Sprintf("http://%s:%d/", host, port),
		Version:         "1.0.0",
		ProtocolVersion: a2a.ProtocolVersion,
		Capabilities: a2a.AgentCapabilities{
			Streaming:  true,
			Extensions: []string{trace.ExtensionURI},
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills:             skills,
	}
}

// serve runs the bridge server with the standard middleware stack and
// graceful shutdown, mirroring the backend server binary.
func serve(srv *bridge.Server, logger *slog.Logger) error {
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     httpHandler,
		ReadTimeout: 30 * time.Second,
		// Task streams stay open for the length of an agent turn; no
		// write timeout.
		IdleTimeout: 120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("agent starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("agent stopped")
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
