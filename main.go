package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gamecore-market/internal/config"
	"gamecore-market/internal/database"
	"gamecore-market/internal/market"
	"gamecore-market/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// 定时把超期挂单转为 expired
	if cfg.Market.ListingExpireDays > 0 {
		maxAge := time.Duration(cfg.Market.ListingExpireDays) * 24 * time.Hour
		listings := market.NewListingStore(db, cfg.Market)
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				n, err := listings.ExpireStale(maxAge)
				if err != nil {
					log.Printf("expire listings: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("expired %d stale listings", n)
				}
			}
		}()
	}

	// setup router
	r := router.SetupRouter(cfg, db)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
