package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/splitbill-app/api/internal/config"
	"github.com/splitbill-app/api/internal/router"
	"github.com/splitbill-app/api/internal/store"
	"github.com/splitbill-app/api/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var st store.Store
	switch cfg.Backend {
	case "memory":
		mem := store.NewMemStore()
		if cfg.SeedSample {
			if err := store.SeedSample(ctx, mem); err != nil {
				log.Fatalf("seed sample data: %v", err)
			}
			log.Println("Seeded bella-vista sample data")
		}
		st = mem
	case "postgres":
		pg, err := store.OpenPG(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open postgres store: %v", err)
		}
		defer pg.Close()
		st = pg
	default:
		log.Fatalf("unknown STORE_BACKEND %q (want memory or postgres)", cfg.Backend)
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(st, hub, cfg.Backend)

	log.Printf("SplitBill API listening on :%s (backend: %s)", cfg.Port, cfg.Backend)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
