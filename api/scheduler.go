/*
scheduler.go - Automated monthly close scheduler

PURPOSE:
  Periodically checks whether the previous month is due for archival and
  triggers it. The check itself is cheap, so the interval is much shorter
  than the monthly cadence; the resolver's run-ledger consultation makes
  repeated checks idempotent.

DESIGN:
  - Background goroutine with a configurable check interval
  - Waits until the configured minimum day of the month
  - Skips periods that already have a successful run recorded
  - The archiver writes the run ledger entry; nothing is recorded here

USAGE:
  scheduler := NewMonthlyScheduler(archiver, resolver)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/diediegodie/tattoo-studio-system/extrato"
)

// MonthlyScheduler triggers the monthly close automatically.
type MonthlyScheduler struct {
	Archiver      *extrato.Archiver
	Resolver      *extrato.Resolver
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMonthlyScheduler creates a new scheduler.
func NewMonthlyScheduler(archiver *extrato.Archiver, resolver *extrato.Resolver) *MonthlyScheduler {
	return &MonthlyScheduler{
		Archiver:      archiver,
		Resolver:      resolver,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ms *MonthlyScheduler) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ms.ticker = time.NewTicker(ms.CheckInterval)
	ms.wg.Add(1)

	go ms.run()

	log.Printf("[Scheduler] Started with check interval: %v", ms.CheckInterval)
}

// Stop stops the scheduler.
func (ms *MonthlyScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.ticker != nil {
		ms.ticker.Stop()
		close(ms.stop)
		ms.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ms *MonthlyScheduler) run() {
	defer ms.wg.Done()

	// Run immediately on start
	ms.checkAndProcess()

	for {
		select {
		case <-ms.ticker.C:
			ms.checkAndProcess()
		case <-ms.stop:
			return
		}
	}
}

func (ms *MonthlyScheduler) checkAndProcess() {
	ctx := context.Background()
	now := time.Now()

	due, target, err := ms.Resolver.ShouldRunMonthly(ctx, now)
	if err != nil {
		log.Printf("[Scheduler] Error checking monthly run: %v", err)
		return
	}
	if !due {
		return
	}

	log.Printf("[Scheduler] Monthly close due for %s", target)

	ok, err := ms.Archiver.Generate(ctx, target.Month, target.Year, false)
	if err != nil {
		log.Printf("[Scheduler] Monthly close for %s failed: %v", target, err)
		return
	}
	if ok {
		log.Printf("[Scheduler] Monthly close for %s completed", target)
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (ms *MonthlyScheduler) RunNow() {
	ms.checkAndProcess()
}
