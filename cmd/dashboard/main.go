package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/travelagi/dashboard/internal/channel"
	"github.com/travelagi/dashboard/internal/config"
	"github.com/travelagi/dashboard/internal/handler"
	"github.com/travelagi/dashboard/internal/hub"
	"github.com/travelagi/dashboard/internal/model/chat"
	"github.com/travelagi/dashboard/internal/service/transcript"
	"github.com/travelagi/dashboard/internal/session"
	"github.com/travelagi/dashboard/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, err := session.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer store.Close()

	links := webhook.NewClient(cfg.Webhooks.StartLinkingURL, cfg.Webhooks.NotifyURL, cfg.Webhooks.Timeout)

	sessions := session.NewManager(store, links)
	if err := sessions.Initialize(ctx); err != nil {
		log.Fatalf("failed to restore session state: %v", err)
	}

	transcripts := transcript.NewService()
	events := hub.New()
	defer events.Close()

	channelOpts := channel.DefaultOptions(cfg.Channel.URL)
	channelOpts.PingInterval = cfg.Channel.PingInterval
	client := channel.NewClient(channelOpts, channel.Handlers{
		OnChatMessage: func(msg chat.Message) {
			transcripts.Append(msg)
			events.Broadcast(hub.Event{Name: "chat-message", Data: msg})
		},
		OnPersona: func(raw json.RawMessage) {
			if err := sessions.ApplyPersonaPayload(ctx, raw); err != nil {
				return
			}
			events.Broadcast(hub.Event{Name: "persona-updated", Data: map[string]string{"status": "updated"}})
		},
	})
	go func() {
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("channel client stopped: %v", err)
		}
	}()
	defer client.Close()

	router := handler.NewRouter(sessions, transcripts, events, cfg.Widget.AgentID)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Travel persona dashboard listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
