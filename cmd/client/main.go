package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/client/cli"
	"github.com/dmitrijs2005/taskkeeper/internal/client/config"
	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	args := flagx.StripArgs(os.Args[1:], []string{"-a", "-t", "-r", "-c", "-config", "--config"})
	if err := app.Run(ctx, args); err != nil {
		os.Exit(1)
	}

}
