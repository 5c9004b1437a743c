package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/skitch/coworkstreambot/internal/broadcast"
	"github.com/skitch/coworkstreambot/internal/config"
	"github.com/skitch/coworkstreambot/internal/handlers"
	"github.com/skitch/coworkstreambot/internal/session"
	"github.com/skitch/coworkstreambot/internal/store"
	"github.com/skitch/coworkstreambot/internal/twitch"
)

func main() {
	cfg := config.Load()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	auth := store.LoadAuthRegistry(cfg.ChannelsFile, cfg.DefaultChannel, cfg.DefaultPass)

	channels := make([]string, 0, len(auth))
	for channel := range auth {
		channels = append(channels, channel)
	}

	hub := broadcast.NewHub()
	registry := session.NewRegistry(st, hub, channels)

	log.Println("🔐 Authenticating with Twitch...")
	tokens := twitch.NewTokenManager(cfg.TokensFile, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
	accessToken, err := tokens.ValidToken()
	if err != nil {
		log.Fatalf("critical auth error: %v", err)
	}

	bot := twitch.NewBot(cfg.BotUsername, accessToken, registry)
	registry.SetAnnouncer(bot.Say)
	go func() {
		if err := bot.Connect(); err != nil {
			log.Fatalf("chat connection lost: %v", err)
		}
	}()

	engine := html.New("./static", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(logger.New())

	cookies := fibersession.New()
	h := handlers.NewHandler(registry, auth, cookies, cfg.PublicURL)
	h.Reply = bot.Say
	ws := handlers.NewWebSocketHandler(registry, hub)

	app.Get("/", h.LandingPage)
	app.Get("/overlay", h.OverlayPage)
	app.Get("/dashboard", h.DashboardPage)
	app.Post("/api/login", h.Login)
	app.Post("/api/command", h.Command)
	app.Get("/ws/:channel", ws.WebSocketMiddleware, websocket.New(ws.HandleWebSocket))

	go func() {
		log.Printf("🚀 Bot is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("web server: %v", err)
		}
	}()

	dataDir, _ := filepath.Abs(cfg.DataDir)
	log.Printf("📁 Data Directory: %s", dataDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down, flushing channel data...")
	registry.FlushAll()
	_ = bot.Disconnect()
	_ = app.Shutdown()
}
