package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/contentsync"
	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/routes"
	"github.com/kgr33n/kblog/utils"
)

func main() {
	syncOnly := flag.Bool("sync", false, "run one content synchronization pass and exit")
	flag.Parse()

	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(
		&models.Role{},
		&models.Rank{},
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Vote{},
		&models.PageView{},
	)
	if err := models.SeedCatalogs(db); err != nil {
		utils.Sugar.Fatalf("catalog seeding failed: %v", err)
	}

	syncOpts := contentsync.Options{
		DefaultAuthor:    cfg.ContentDefaultAuthor,
		DefaultCategory:  cfg.ContentDefaultCategory,
		FallbackUsername: cfg.ContentFallbackUsername,
	}

	if *syncOnly {
		report, err := contentsync.Sync(db, cfg.ContentDir, syncOpts)
		if err != nil {
			utils.Sugar.Fatalf("content sync failed: %v", err)
		}
		utils.Sugar.Infof("content sync run=%s done: created=%d skipped=%d errors=%d",
			report.RunID, report.Created, report.Skipped, len(report.Errors))
		return
	}

	if cfg.ContentSyncEnabled {
		interval := time.Duration(cfg.ContentSyncIntervalMin) * time.Minute
		contentsync.StartScheduler(db, cfg.ContentDir, interval, syncOpts)
	}

	router := routes.SetupRouter(db)

	addr := fmt.Sprintf(":%s", cfg.AppPort)
	utils.Sugar.Infof("listening on %s", addr)
	if err := utils.GraceServer(addr, router); err != nil {
		utils.Sugar.Fatalf("server exited: %v", err)
	}
}
