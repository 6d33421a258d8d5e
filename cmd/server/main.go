package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"perftrack/internal/app/server"
)

func main() {
	// A .env file is optional; deployments set the environment directly.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := server.Run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
