// score-producer publishes synthetic score events to Kafka for load
// testing the ingestion path. User ids must belong to existing users;
// the consumer drops events for unknown ids.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/snake-arena/internal/domain"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "score-events", "Kafka topic")
	userIDs := flag.String("users", "", "User ids to submit for (comma-separated, required)")
	rate := flag.Int("rate", 10, "Events per second")
	maxScore := flag.Int("max-score", 3000, "Upper bound for random scores")
	duration := flag.Duration("duration", 0, "How long to run (0 = until interrupted)")
	flag.Parse()

	ids := strings.Split(*userIDs, ",")
	if *userIDs == "" || len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "at least one user id is required (-users)")
		os.Exit(1)
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		log.Fatalf("failed to create producer: %v", err)
	}
	defer producer.Close()

	modes := []domain.GameMode{domain.GameModeWalls, domain.GameModePassThrough}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	sent := 0
	log.Printf("producing score events to %s at %d/sec for %d users", *topic, *rate, len(ids))

	for {
		select {
		case <-sigChan:
			log.Printf("interrupted; sent %d events", sent)
			return

		case <-deadline:
			log.Printf("done; sent %d events", sent)
			return

		case <-ticker.C:
			event := domain.ScoreEvent{
				UserID:    ids[rand.Intn(len(ids))],
				Score:     rand.Intn(*maxScore),
				Mode:      modes[rand.Intn(len(modes))],
				GameID:    fmt.Sprintf("load-%d", sent),
				Timestamp: time.Now().UTC(),
			}

			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("failed to marshal event: %v", err)
				continue
			}

			_, _, err = producer.SendMessage(&sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(event.UserID),
				Value: sarama.ByteEncoder(data),
			})
			if err != nil {
				log.Printf("failed to send event: %v", err)
				continue
			}
			sent++
		}
	}
}
