package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"

	"mybooks/common"
	"mybooks/internal/config"
	"mybooks/internal/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Format: logger.FormatConsole})

	cfg, err := config.Load(common.GetEnv("CONFIG_FILE", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	broker := cfg.Notifications.KafkaBroker
	if broker == "" {
		broker = "localhost:9092"
	}
	topic := cfg.Notifications.Topic

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		log.Error().Err(err).Str("broker", broker).Msg("failed to connect to Kafka")
		os.Exit(1)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to read topic metadata")
		os.Exit(1)
	}
	if n := countTopicPartitions(partitions, topic); n == 0 {
		log.Error().Str("topic", topic).Msg("notifications topic has no partitions")
		os.Exit(1)
	}

	fmt.Printf("connected to Kafka at %s (topic %s, %d partitions)\n", broker, topic, countTopicPartitions(partitions, topic))
}

func countTopicPartitions(partitions []kafka.Partition, topic string) int {
	n := 0
	for _, p := range partitions {
		if p.Topic == topic {
			n++
		}
	}
	return n
}
