package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	maxDialAttempts = 10
	maxBackoff      = 30 * time.Second
)

// StartMatchConsumer connects to the broker, declares the match.events
// queue and consumes from it, appending one line per event to
// logs/match.log. Dial failures are retried with exponential backoff
// capped at maxBackoff; after maxDialAttempts consecutive failures the
// consumer gives up and returns an error so the operator notices a
// dead broker instead of an endlessly retrying goroutine.
func StartMatchConsumer() error {
	url := brokerURL()

	backoff := time.Second
	failures := 0
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			failures++
			if failures >= maxDialAttempts {
				return fmt.Errorf("match-consumer: broker unreachable after %d attempts: %w", failures, err)
			}
			log.Printf("match-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		failures = 0

		if err := consumeLoop(conn); err != nil {
			log.Printf("match-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("match-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(matchQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(matchQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage("logs", d.Body); err != nil {
			log.Printf("match-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject without requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleMessage appends one formatted line per event to
// <dir>/match.log. Created and cancelled events share the queue and
// disagree on the players field (list vs count), so the message is
// decoded into the concrete event type, keyed on cancelled_at.
func handleMessage(dir string, body []byte) error {
	line, err := eventLine(body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	fpath := filepath.Join(dir, "match.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func eventLine(body []byte) (string, error) {
	var head struct {
		CancelledAt string `json:"cancelled_at"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}

	if head.CancelledAt != "" {
		var ev MatchCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal cancelled: %w", err)
		}
		return fmt.Sprintf("[%s] Match cancelled | match_id=%s | initiator=%d | stadium=%q | players=%d\n",
			ev.CancelledAt, ev.MatchID, ev.InitiatorID, ev.StadiumName, ev.Players), nil
	}

	var ev MatchCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal created: %w", err)
	}
	players := "[]"
	if len(ev.Players) > 0 {
		players = fmt.Sprintf("[%s]", strings.Join(ev.Players, ","))
	}
	return fmt.Sprintf("[%s] Match created | match_id=%s | initiator=%d (%s) | activity=%s | stadium=%q | players=%s\n",
		ev.CreatedAt, ev.MatchID, ev.InitiatorID, ev.Username, ev.ActivityType, ev.StadiumName, players), nil
}
