package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSchedulers wires the minute-cadence background jobs: publishing
// scheduled news articles and making sure the admin Live tab always has a
// match aggregate to load. Returns the scheduler so main can shut it down.
func StartSchedulers(news *NewsService, matches *LiveMatchService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	// Every minute: publish news whose scheduled time has passed.
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			n, err := news.PublishDue(ctx, time.Now())
			if err != nil {
				log.Printf("[SCHEDULER] news publish pass failed: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[SCHEDULER] published %d scheduled article(s)", n)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	// Every minute: auto-provision a placeholder match when the table has
	// gone completely empty, so operators always have something to set up.
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			_, err := matches.FeaturedMatch(ctx)
			if err == nil {
				return
			}
			if !errors.Is(err, ErrMatchNotFound) {
				log.Printf("[SCHEDULER] featured match check failed: %v", err)
				return
			}
			if _, err := matches.CreatePlaceholder(ctx); err != nil {
				log.Printf("[SCHEDULER] placeholder provisioning failed: %v", err)
			} else {
				log.Println("[SCHEDULER] provisioned placeholder live match")
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return sched, nil
}
