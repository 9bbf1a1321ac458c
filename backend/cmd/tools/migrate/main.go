package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/agora-forum/agora/backend/internal/storage/pg"
	"github.com/agora-forum/agora/shared/config"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)

	storage, err := pg.New(cfg, sharedpg.LightweightConnectionConfig())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer storage.Cleanup()

	applied, err := storage.Migrate(context.Background())
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if len(applied) == 0 {
		fmt.Println("Schema is up to date")
		return
	}
	for _, v := range applied {
		fmt.Println("applied", v)
	}
}
