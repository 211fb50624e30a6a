package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hackmate/hackathon-helper/internal/logger"
	"github.com/hackmate/hackathon-helper/internal/notify"
	"github.com/hackmate/hackathon-helper/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	// Best-effort delivery: a message that cannot be handed over is
	// logged and dropped, never retried.
	err = queue.Consume(ctx, func(msg amqp.Delivery) {
		m := notify.Message{}
		if err := json.Unmarshal(msg.Body, &m); err != nil {
			log.Errorf("failed to parse message: %s", err)
			return
		}
		log.Printf("delivering to user %s: %s / %s", m.UserID, m.Title, m.Body)
	})
	if err != nil {
		log.Errorf("failed to consume: %v", err)
	}
}
