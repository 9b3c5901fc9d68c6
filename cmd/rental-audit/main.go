package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"rental-location/internal/config"
	"rental-location/internal/kafka"
	"rental-location/internal/logger"
	"rental-location/internal/models"
	"syscall"
)

// rental-audit tails the rental log audit topic and writes every change to the log
func main() {
	group := flag.String("group", "rental-audit", "kafka consumer group")
	flag.Parse()

	cfg, _ := config.Load()
	log := logger.NewLogger(cfg.Log.Dir)
	defer log.Close()

	if len(cfg.Kafka.Brokers) == 0 {
		log.Error("CONFIG", "KAFKA_BROKERS not set")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, *group, log)
	defer consumer.Close()

	err := consumer.Start(ctx, func(change models.RentalLogChange) {
		log.LogRental(change.Action, change.LogID, fmt.Sprintf("work date %s at %s", change.WorkDate, change.At.Format("15:04:05")))
	})
	if err != nil {
		log.Error("KAFKA", fmt.Sprintf("Audit consumer stopped: %v", err))
		os.Exit(1)
	}
}
