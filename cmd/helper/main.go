package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackmate/hackathon-helper/internal/app"
	"github.com/hackmate/hackathon-helper/internal/logger"
	"github.com/hackmate/hackathon-helper/internal/notify"
	"github.com/hackmate/hackathon-helper/internal/rabbit"
	internalhttp "github.com/hackmate/hackathon-helper/internal/server/http"
	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/helper_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.Prepare(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		if err := stor.Close(ctx); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()

	queue := rabbit.New(config.Rabbit)
	if err := queue.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer queue.Close()

	settingsSvc := settings.New(stor)
	notifier := notify.NewNotifier(stor, settingsSvc, notify.NewQueueDispatcher(queue))
	helper := app.New(stor, notifier)
	server := internalhttp.NewServer(config.HTTPServer, helper, settingsSvc, stor)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("hackathon helper is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
	}
}
