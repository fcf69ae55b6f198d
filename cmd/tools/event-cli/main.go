package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/voxel-pathing/internal/eventbus"
)

const timeFormat = "15:04:05"

func main() {
	var (
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
		stream     = flag.String("stream", eventbus.DefaultStream, "JetStream stream name")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Event sources filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = follow forever)")
		timeout    = flag.Duration("timeout", 0, "Stop after duration (0 = no timeout)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	filter := eventbus.Filter{
		Types:   parseStringList(*eventTypes),
		Sources: parseStringList(*sources),
	}
	count, err := tailEvents(ctx, bus, filter, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Tail failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n📊 Total events: %d\n", count)
}

// tailEvents печатает события, пока не отменён ctx или не набран limit
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, limit int) (int, error) {
	fmt.Printf("🎬 Tailing pathing events (types: %v, limit: %d)\n", filter.Types, limit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return 0, err
	}
	defer sub.Unsubscribe()

	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, nil
		case ev := <-events:
			fmt.Println(formatEvent(ev))
			count++
			if limit > 0 && count >= limit {
				return count, nil
			}
		}
	}
}

// formatEvent выводит событие в читаемом формате
func formatEvent(ev *eventbus.Envelope) string {
	header := fmt.Sprintf("[%s] %s [%s] %s", ev.Timestamp.Local().Format(timeFormat), ev.Source, ev.EventType, ev.ID)

	// Добавляем детали в зависимости от типа события
	switch ev.EventType {
	case eventbus.EventChunkRefresh:
		var payload eventbus.ChunkRefresh
		if err := ev.Decode(&payload); err == nil {
			return fmt.Sprintf("%s\n  Chunk: %s", header, payload.Chunk)
		}
	case eventbus.EventPathComputed:
		var payload struct {
			Status string  `json:"status"`
			Cost   float64 `json:"cost"`
		}
		if err := ev.Decode(&payload); err == nil {
			return fmt.Sprintf("%s\n  Request: %s Status: %s Cost: %.2f", header, ev.CorrelationID, payload.Status, payload.Cost)
		}
	}
	return fmt.Sprintf("%s\n  Payload: %s", header, ev.Payload)
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
