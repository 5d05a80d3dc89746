package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/facultyreview/internal/client/cli"
	"github.com/dmitrijs2005/facultyreview/internal/client/config"
	"github.com/dmitrijs2005/facultyreview/internal/flagx"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	command := flagx.Positional(args, []string{"-a", "-t", "-d", "-c", "-config"})

	// flags after the command belong to the command
	cfg, err := config.LoadConfig(args[:len(args)-len(command)])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, command); err != nil {
		log.Fatalf("%v", err)
	}

}
