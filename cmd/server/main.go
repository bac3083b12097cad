package main

import (
	"log"
	"net/http"

	"github.com/resto-pos/admin-api/internal/backend"
	"github.com/resto-pos/admin-api/internal/config"
	"github.com/resto-pos/admin-api/internal/router"
	"github.com/resto-pos/admin-api/internal/ws"
)

func main() {
	cfg := config.Load()

	client := backend.New(cfg.BackendBaseURL)

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, client, hub)

	log.Printf("Starting server on :%s (backend %s)", cfg.Port, cfg.BackendBaseURL)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
