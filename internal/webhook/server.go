package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cryptoTradeJournal/internal/ports"
)

// StartHandler serves the /start chat command for a given chat.
type StartHandler interface {
	HandleStart(ctx context.Context, chatID string) error
}

// Server receives Telegram webhook updates over HTTP and routes chat
// commands to the application service. Only the update fields the bot
// reacts to are decoded; everything else is acknowledged and dropped.
type Server struct {
	httpServer *http.Server
	handler    StartHandler
	logger     ports.Logger
}

// Config holds configuration for the webhook server.
type Config struct {
	Addr    string
	Handler StartHandler
	Logger  ports.Logger
}

type update struct {
	Message struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// New creates the webhook server with its routes registered.
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for webhook server", ports.ErrConfigurationError)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{handler: cfg.Handler, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Post("/telegram-webhook", s.handleUpdate)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Webhook server listening", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err, "Webhook server shutdown failed")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleUpdate acknowledges every update with 200 so Telegram does not retry;
// unsupported updates and handler failures are logged, not surfaced.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var upd update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.logger.Warn(r.Context(), "Undecodable webhook update", map[string]interface{}{"error": err.Error()})
		w.WriteHeader(http.StatusOK)
		return
	}

	text := strings.TrimSpace(upd.Message.Text)
	chatID := upd.Message.Chat.ID
	if chatID == 0 || text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Commands may arrive with a bot mention suffix, e.g. /start@journal_bot.
	command, _, _ := strings.Cut(text, "@")
	if command == "/start" {
		if err := s.handler.HandleStart(r.Context(), strconv.FormatInt(chatID, 10)); err != nil {
			s.logger.Error(r.Context(), err, "Failed to handle /start command", map[string]interface{}{
				"chatID": chatID,
			})
		}
	}

	w.WriteHeader(http.StatusOK)
}
