package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"baseapp/internal/articles"
	"baseapp/internal/auth"
	"baseapp/internal/config"
	"baseapp/internal/db"
	"baseapp/internal/httpserver"
	"baseapp/internal/logging"
	"baseapp/internal/users"
	"baseapp/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	ctx := context.Background()
	logger := logging.New()

	cfg := config.Load()

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userStore := users.NewStore(dbConn)
	articleStore := articles.NewStore(dbConn)

	if cfg.SeedPath != "" {
		if err := userStore.SeedFromFile(ctx, cfg.SeedPath); err != nil {
			log.Fatalf("seed users: %v", err)
		}
		if err := articleStore.SeedFromFile(ctx, cfg.SeedPath); err != nil {
			log.Fatalf("seed articles: %v", err)
		}
	}

	tokens := auth.NewTokenService(cfg.Secret)

	render, err := web.NewRenderer(logger, cfg.Env)
	if err != nil {
		log.Fatalf("parse templates: %v", err)
	}

	mw := &auth.Middleware{Tokens: tokens, Users: userStore, Logger: logger}
	authHandler := &auth.Handler{Users: userStore, Tokens: tokens, Render: render, Logger: logger}
	userHandler := &users.Handler{Store: userStore, Render: render, Logger: logger}
	articleHandler := &articles.Handler{Store: articleStore, Render: render, Logger: logger}

	handler := httpserver.NewRouter(render, mw, authHandler, userHandler, articleHandler)
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
