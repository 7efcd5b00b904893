package main

import (
	"context"
	"log"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/bootstrap"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/config"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/server"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/tracer"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Limiter.Close()

	// Ingestion consumer drains the embedding queue in the background.
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
