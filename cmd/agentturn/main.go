// Command agentturn runs an interactive REPL over the turn engine,
// wiring the tool selector, history preparer, tool pipeline, stream
// processor, and a concrete LLM transport together (spec §4.5; SPEC_FULL
// §3 "LLM transport interface").
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coreflux/agentturn/internal/engine"
	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/observability"
	"github.com/coreflux/agentturn/internal/selector"
	"github.com/coreflux/agentturn/internal/sessions"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/internal/toolpipeline"
	"github.com/coreflux/agentturn/internal/transport"
	"github.com/coreflux/agentturn/pkg/models"
)

var (
	providerFlag  string
	modelFlag     string
	cachePathFlag string
	logFormatFlag string
	sessionIDFlag string
)

func main() {
	root := &cobra.Command{
		Use:   "agentturn",
		Short: "Interactive REPL for the agent turn engine",
	}
	root.PersistentFlags().StringVar(&providerFlag, "provider", "anthropic", "LLM transport: anthropic|openai")
	root.PersistentFlags().StringVar(&modelFlag, "model", "", "override the provider's default model")
	root.PersistentFlags().StringVar(&cachePathFlag, "tool-cache", "tool_embeddings_cache.json", "path to the tool selector's embedding cache")
	root.PersistentFlags().StringVar(&logFormatFlag, "log-format", "text", "log output format: text|json")
	root.PersistentFlags().StringVar(&sessionIDFlag, "session-id", "", "resume a prior session by ID instead of starting a new one")

	root.AddCommand(chatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive turn-by-turn session against stdin/stdout",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  "info",
		Format: logFormatFlag,
	})
	metrics := observability.NewMetrics()
	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "agentturn",
		ServiceVersion: "0.1.0",
		Environment:    os.Getenv("AGENTTURN_ENV"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn(ctx, "tracer shutdown failed", "error", err)
		}
	}()

	llm, err := buildProvider()
	if err != nil {
		return err
	}

	catalog := builtinCatalog()
	eng := engine.New(
		engine.Default(),
		selector.New(selector.Default(), selector.LoadCache(cachePathFlag), nil),
		history.New(history.Default()),
		toolpipeline.New(toolpipeline.Default(), toolDefsByName(catalog), builtinExecutorLookup(logger), nil),
		streamproc.New(),
		llm,
		nil, // no workflow handler wired in the demo CLI
		catalog,
		"You are a concise, helpful assistant.",
	)

	store := sessions.NewMemoryStore()
	sessionID, session, err := resumeOrCreateSession(ctx, store, sessionIDFlag)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "session %s\n", sessionID)

	fmt.Println("agentturn chat — type your message, Ctrl-D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := scanner.Text()
		if query == "" {
			continue
		}

		turnCtx, span := tracer.TraceMessageProcessing(ctx, "cli", "inbound", session.CurrentUser.ID)
		started := time.Now()

		eng.RunTurn(turnCtx, session, query, func(ev *models.UIEvent) {
			renderEvent(ev)
		})

		metrics.RecordLLMRequest(providerFlag, modelFlag, string(session.LastInteractionStatus), time.Since(started).Seconds(), 0, 0)
		tracer.RecordError(span, session.CurrentStepError)
		span.End()
		fmt.Println()

		if err := store.Save(ctx, sessionID, session); err != nil {
			logger.Warn(ctx, "failed to persist session", "session_id", sessionID, "error", err)
		}
	}

	return scanner.Err()
}

// resumeOrCreateSession loads an existing session by id, or allocates a
// fresh one in store when id is empty or unknown. The demo CLI is a
// single-process REPL, so an in-memory sessions.Store is enough to prove
// out the persistence seam a longer-lived caller (a server, a bot
// gateway) would back with something durable.
func resumeOrCreateSession(ctx context.Context, store sessions.Store, id string) (string, *models.SessionState, error) {
	if id != "" {
		if state, err := store.Get(ctx, id); err == nil {
			return id, state, nil
		}
	}

	user := &models.User{ID: uuid.NewString(), Permissions: map[string]bool{}}
	newID, err := store.Create(ctx, user)
	if err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}
	state, err := store.Get(ctx, newID)
	if err != nil {
		return "", nil, fmt.Errorf("loading newly created session: %w", err)
	}
	return newID, state, nil
}

func renderEvent(ev *models.UIEvent) {
	switch ev.Type {
	case models.EventTextChunk:
		if text, ok := ev.Content.(string); ok {
			fmt.Print(text)
		}
	case models.EventStatus:
		if status, ok := ev.Content.(string); ok {
			fmt.Fprintf(os.Stderr, "[status] %s\n", status)
		}
	case models.EventError:
		if msg, ok := ev.Content.(string); ok {
			fmt.Fprintf(os.Stderr, "[error] %s\n", msg)
		}
	case models.EventToolCalls, models.EventToolResults:
		// left to a richer UI; the demo CLI only renders text and status.
	case models.EventCompleted:
		if content, ok := ev.Content.(models.CompletedContent); ok {
			fmt.Fprintf(os.Stderr, "[completed] %s\n", content.Status)
		}
	}
}

func buildProvider() (engine.LLMProvider, error) {
	switch providerFlag {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return transport.NewOpenAIProvider(transport.OpenAIConfig{APIKey: key, DefaultModel: modelFlag}), nil
	case "anthropic", "":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return transport.NewAnthropicProvider(transport.AnthropicConfig{APIKey: key, DefaultModel: modelFlag}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic|openai)", providerFlag)
	}
}

func toolDefsByName(catalog []models.ToolDefinition) map[string]models.ToolDefinition {
	out := make(map[string]models.ToolDefinition, len(catalog))
	for _, t := range catalog {
		out[t.Name] = t
	}
	return out
}
