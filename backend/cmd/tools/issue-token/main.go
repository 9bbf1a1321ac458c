// issue-token creates (or reuses) a forum user and prints an access token for
// it. Accounts live in the external identity system in production; this is for
// local development and operations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/agora-forum/agora/backend/internal/storage/pg"
	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/domain"
	"github.com/agora-forum/agora/shared/jwt"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

func main() {
	var (
		configFolder string
		username     string
		admin        bool
	)
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&username, "username", "", "username")
	flag.BoolVar(&admin, "admin", false, "grant admin rights")
	flag.Parse()

	if username == "" {
		log.Fatal("-username is required")
	}

	cfg := config.MustLoad(configFolder)

	storage, err := pg.New(cfg, sharedpg.LightweightConnectionConfig())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer storage.Cleanup()

	user, err := storage.EnsureUser(context.Background(), domain.User{Username: username, Admin: admin})
	if err != nil {
		log.Fatalf("Failed to save user: %v", err)
	}

	token, err := jwt.New(cfg.JwtKey(), cfg.JwtTTL()).NewToken(user)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
