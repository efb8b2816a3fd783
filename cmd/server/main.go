package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"zombie-surge/internal/api"
	"zombie-surge/internal/config"
	"zombie-surge/internal/relay"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🧟 ================================")
	log.Println("🧟  ZOMBIE SURGE - RELAY SERVER")
	log.Println("🧟  Coop rooms + authoritative sim")
	log.Println("🧟 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server
	simCfg := appConfig.Sim
	limits := appConfig.Limits

	log.Printf("🎮 Config: %s tick, %gx%g canvas, ping every %s",
		simCfg.TickInterval, simCfg.Width, simCfg.Height, serverCfg.PingInterval)
	log.Printf("🛡️ Resource limits: %d zombies, %d bullets, %d bursts, %d shots/tick",
		limits.MaxZombies, limits.MaxBullets, limits.MaxBursts, limits.MaxShotsPerTick)

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Relay owns all game state; the scheduler drives its tick loop.
	r := relay.New(appConfig)
	r.OnTick = api.RecordTick

	scheduler := relay.NewScheduler(r, simCfg.TickInterval)
	scheduler.Start()

	server := api.NewServer(r, serverCfg.PingInterval)

	go func() {
		addr := net.JoinHostPort(serverCfg.Host, strconv.Itoa(serverCfg.Port))
		log.Printf("🌐 Health check: http://localhost:%d/health", serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	scheduler.Stop()
	server.Stop()
	log.Println("👋 Goodbye!")
}
