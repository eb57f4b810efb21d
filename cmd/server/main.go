// Command server accepts duplex websocket connections and runs one
// Orchestrator per connection, wiring together the STT/LLM/TTS providers
// selected by environment variables — the same provider-selection idiom as
// the teacher's cmd/agent, adapted from a single local microphone session
// to a process serving many concurrent client connections.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/siddhartha9/interruption-aware-voice-bot/internal/telemetry"
	"github.com/siddhartha9/interruption-aware-voice-bot/internal/transport"
	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
	llmProvider "github.com/siddhartha9/interruption-aware-voice-bot/pkg/providers/llm"
	sttProvider "github.com/siddhartha9/interruption-aware-voice-bot/pkg/providers/stt"
	ttsProvider "github.com/siddhartha9/interruption-aware-voice-bot/pkg/providers/tts"
	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/tools"
)

const defaultSampleRate = 44100

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	shutdownMetrics, err := telemetry.InitProvider("interruption-aware-voice-bot")
	if err != nil {
		log.Fatalf("failed to init telemetry: %v", err)
	}
	defer shutdownMetrics(context.Background())

	logger := orchestrator.NewSlogLogger(slog.Default())

	stt := selectSTT()
	llm := selectLLM()
	tts := selectTTS()

	registry := orchestrator.NewToolRegistry()
	scheduler := orchestrator.NewBackgroundScheduler()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleConnection(w, r, stt, llm, tts, registry, scheduler, logger)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func handleConnection(w http.ResponseWriter, r *http.Request, stt orchestrator.STTProvider, llm orchestrator.LLMProvider, tts orchestrator.TTSProvider, registry *orchestrator.ToolRegistry, scheduler *orchestrator.BackgroundScheduler, logger orchestrator.Logger) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Warn("failed to accept websocket", "error", err)
		return
	}
	wsTransport := transport.NewWSTransport(conn)
	defer wsTransport.Close()

	sessionID := uuid.NewString()

	cfg := orchestrator.DefaultConfig()
	cfg.SystemPrompt = "You are a helpful and concise voice assistant. Use short sentences suitable for speech."
	cfg.ToolsEnabled = true

	ctx := r.Context()

	orch, err := orchestrator.New(ctx, sessionID, stt, llm, tts, wsTransport, registry, scheduler, cfg, logger)
	if err != nil {
		logger.Error("failed to construct orchestrator", "error", err)
		return
	}
	defer orch.Close()

	if cfg.ToolsEnabled {
		orch.RegisterTool(tools.EmailStatementTool(&tools.SMTPStatementSender{}))
	}

	if err := wsTransport.Send(orchestrator.ServerEvent{Event: orchestrator.ServerConnected, SessionID: sessionID, Message: "ready"}); err != nil {
		logger.Warn("failed to send connected event", "sessionID", sessionID, "error", err)
		return
	}

	for {
		ev, err := wsTransport.ReadEvent(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrProtocol) {
				logger.Warn("protocol error, ignoring", "sessionID", sessionID, "error", err)
				continue
			}
			logger.Info("connection closed", "sessionID", sessionID, "error", err)
			return
		}
		orch.Dispatch(ev)
	}
}

func selectSTT() orchestrator.STTProvider {
	providerName := os.Getenv("STT_PROVIDER")
	if providerName == "" {
		providerName = "groq"
	}

	switch providerName {
	case "openai":
		return sttProvider.NewOpenAISTT(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_STT_MODEL"), defaultSampleRate)
	case "deepgram":
		return sttProvider.NewDeepgramSTT(os.Getenv("DEEPGRAM_API_KEY"), defaultSampleRate)
	case "assemblyai":
		return sttProvider.NewAssemblyAISTT(os.Getenv("ASSEMBLYAI_API_KEY"))
	case "groq":
		fallthrough
	default:
		return sttProvider.NewGroqSTT(os.Getenv("GROQ_API_KEY"), os.Getenv("GROQ_STT_MODEL"), defaultSampleRate)
	}
}

func selectLLM() orchestrator.LLMProvider {
	providerName := os.Getenv("LLM_PROVIDER")
	if providerName == "" {
		providerName = "openai"
	}

	switch providerName {
	case "anthropic":
		return llmProvider.NewAnthropicLLM(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("ANTHROPIC_MODEL"))
	case "google":
		return llmProvider.NewGoogleLLM(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GOOGLE_MODEL"))
	case "groq":
		return llmProvider.NewGroqLLM(os.Getenv("GROQ_API_KEY"), os.Getenv("GROQ_LLM_MODEL"))
	case "openai":
		fallthrough
	default:
		return llmProvider.NewOpenAILLM(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_LLM_MODEL"))
	}
}

func selectTTS() orchestrator.TTSProvider {
	return ttsProvider.NewLokutorTTS(os.Getenv("LOKUTOR_API_KEY"))
}
