package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/api/calls"
	"github.com/Vasu1712/scenyx-chat/internal/api/chats"
	"github.com/Vasu1712/scenyx-chat/internal/api/groups"
	"github.com/Vasu1712/scenyx-chat/internal/api/notifications"
	"github.com/Vasu1712/scenyx-chat/internal/api/realtime"
	"github.com/Vasu1712/scenyx-chat/internal/auth"
	"github.com/Vasu1712/scenyx-chat/internal/call"
	"github.com/Vasu1712/scenyx-chat/internal/chat"
	"github.com/Vasu1712/scenyx-chat/internal/config"
	"github.com/Vasu1712/scenyx-chat/internal/events"
	"github.com/Vasu1712/scenyx-chat/internal/middleware"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/Vasu1712/scenyx-chat/internal/storage/memory"
	"github.com/Vasu1712/scenyx-chat/internal/storage/postgres"
	"github.com/Vasu1712/scenyx-chat/internal/storage/valkeystore"
	"github.com/Vasu1712/scenyx-chat/internal/ws"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded, using the process environment.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stores storage.Stores
	if cfg.DatabaseURL != "" {
		var db *sql.DB
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		stores = postgres.NewStores(db)
	} else {
		log.Println("DATABASE_URL not set, using in-memory stores.")
		stores = memory.NewStores()
	}

	var cache chat.MembershipCache
	if cfg.ValkeyAddr != "" {
		vc, err := valkeystore.Dial(cfg.ValkeyAddr, cfg.ValkeyPassword, cfg.MembershipCacheTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Valkey: %v", err)
		}
		defer vc.Close()
		cache = vc
	} else {
		cache = memory.NewMembershipCache(cfg.MembershipCacheTTL)
	}

	publisher := events.NewFallback()
	if cfg.AMQPURL != "" {
		rp, err := events.NewRabbitPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rp
	}
	defer publisher.Close()

	hub := ws.NewHub()
	resolver := chat.NewResolver(stores.Conversations, cache)
	relay := chat.NewRelay(hub, resolver, stores.Notifications, stores.Users, publisher)
	callManager := call.New(hub, stores.CallLogs, publisher)

	// A user whose connection goes away leaves any call they are on.
	hub.OnOffline(func(userID string) {
		callManager.Hangup(context.Background(), userID)
	})

	verifier := auth.NewVerifier(cfg.JWTSecret)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(verifier.Middleware)

	realtime.RegisterRealtimeRoutes(router, api, &realtime.Handler{
		Hub:            hub,
		Relay:          relay,
		Calls:          callManager,
		Members:        resolver,
		Messages:       stores.Messages,
		Profiles:       stores.Users,
		Verifier:       verifier,
		AllowedOrigins: cfg.CORSOrigins,
		SendBuffer:     cfg.WSSendBuffer,
	})
	chats.RegisterChatRoutes(api, &chats.ChatHandler{
		Conversations: stores.Conversations,
		Messages:      stores.Messages,
		Relay:         relay,
	})
	groups.RegisterGroupRoutes(api, &groups.GroupHandler{
		Store:    stores.Conversations,
		Resolver: resolver,
		Rooms:    hub,
	})
	notifications.RegisterNotificationRoutes(api, &notifications.NotificationHandler{
		Store: stores.Notifications,
		Mutes: stores.Conversations,
	})
	calls.RegisterCallRoutes(api, &calls.CallHandler{Logs: stores.CallLogs, Sessions: callManager})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.CORS(cfg.CORSOrigins)(middleware.Logging(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server started at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	callManager.Close(shutdownCtx)
}
