package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"afa.directory/internal/client"
	"afa.directory/internal/migrate"
)

func main() {
	base := os.Getenv("DIRECTORY_API_URL")
	if base == "" {
		base = "http://localhost:3001"
	}
	username := envOr("DIRECTORY_SMOKE_USER", migrate.DefaultAdminUsername)
	password := envOr("DIRECTORY_SMOKE_PASSWORD", migrate.DefaultAdminPassword)

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	ext := "9" + strconv.FormatInt(time.Now().Unix()%100000, 10)
	id, err := client.New(base, logger).Smoke(username, password, ext)
	if err != nil {
		logger.Fatal("directory smoke test failed", zap.String("base_url", base), zap.Error(err))
	}
	fmt.Printf("directory smoke test passed: employee=%d extension=%s\n", id, ext)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
