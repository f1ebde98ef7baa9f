package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// keepaliveInterval paces SSE comment frames so idle proxies don't drop the
// connection between match mutations.
const keepaliveInterval = 15 * time.Second

// LiveFeedService pushes the featured match to viewers over SSE. The design
// is refetch-on-signal: any change to the match or event tables triggers one
// full re-read of the featured aggregate (teams joined, ledger newest-first)
// which is streamed whole. No incremental patching — match cardinality is
// one, so a full aggregate per signal is cheap.
type LiveFeedService struct {
	Matches *LiveMatchService
	Broker  *ChangeBroker
}

func NewLiveFeedService(matches *LiveMatchService, broker *ChangeBroker) *LiveFeedService {
	return &LiveFeedService{Matches: matches, Broker: broker}
}

// StreamMatchSSE serves the viewer subscription channel. Each connected
// viewer gets an independent broker subscription; the current aggregate is
// sent immediately on connect, then after every change signal.
func (s *LiveFeedService) StreamMatchSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	changes, cancel := s.Broker.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()

		// Snapshot on connect so a fresh viewer is never blank until the
		// next mutation.
		if err := s.writeMatch(w); err != nil {
			return
		}

		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				// Drain any queued signals; one refetch covers them all.
				for {
					select {
					case <-changes:
						continue
					default:
					}
					break
				}
				if err := s.writeMatch(w); err != nil {
					return
				}

			case <-ticker.C:
				if _, err := w.WriteString(":\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}

func (s *LiveFeedService) writeMatch(w *bufio.Writer) error {
	ctx, cancelFetch := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFetch()

	match, err := s.Matches.FeaturedMatch(ctx)
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		log.Printf("[FEED] featured match refetch failed: %v", err)
		// Keep the stream open; the next signal retries.
		return nil
	}

	payload, err := json.Marshal(fiber.Map{"match": match})
	if err != nil {
		log.Printf("[FEED] failed to marshal match payload: %v", err)
		return nil
	}

	if _, err := fmt.Fprintf(w, "event: match\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
