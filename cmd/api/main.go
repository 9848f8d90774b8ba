package main

import (
	"log"

	"enrollment-backend/internal/shared/config"
	"enrollment-backend/internal/shared/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	r, err := server.NewRouter(cfg)
	if err != nil {
		log.Fatalf("setup error: %v", err)
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
