package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkbook/studio/cmd/api/commands"
)

// @title InkBook Event Store API
// @version 1.0
// @description Appointments of the InkBook studio agenda.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		log.Printf("Command execution failed: %v", err)
		stop()
		os.Exit(1)
	}
}
