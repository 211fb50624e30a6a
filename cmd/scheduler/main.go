package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackmate/hackathon-helper/internal/logger"
	"github.com/hackmate/hackathon-helper/internal/notify"
	"github.com/hackmate/hackathon-helper/internal/rabbit"
	"github.com/hackmate/hackathon-helper/internal/scheduler"
	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storagebuilder"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/scheduler_config.yaml", "Path to configuration file")
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

	queue := rabbit.New(config.Rabbit)
	if err := queue.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer queue.Close()

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

	dedup, err := storagebuilder.NewDedup(config.Storage, stor)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	reminders := scheduler.New(
		config.Scheduler,
		stor,
		settings.New(stor),
		dedup,
		notify.NewQueueDispatcher(queue),
	)

	gc := cron.New()
	if _, err := gc.AddFunc(config.CleanupSchedule, func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(ctx, time.Minute)
		defer cleanupCancel()
		reminders.CleanupMarkers(cleanupCtx)
	}); err != nil {
		log.Errorf("failed to schedule marker cleanup: %v", err)
		return
	}
	gc.Start()
	defer gc.Stop()

	reminders.Run(ctx)
}
