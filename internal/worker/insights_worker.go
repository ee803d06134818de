package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/insights"
	"fintrack/internal/storage"
)

// InsightsWorker recomputes spending insights whenever transactions change.
// It listens for AMQP change notifications and also refreshes on a timer as
// a backup in case messages are lost.
type InsightsWorker struct {
	storage    *storage.Repository
	analyzer   *insights.Analyzer
	amqpClient *amqp.Client
	interval   time.Duration
	windowDays int

	mu          sync.Mutex
	lastRefresh time.Time
}

func NewInsightsWorker(store *storage.Repository, analyzer *insights.Analyzer, amqpClient *amqp.Client, interval time.Duration, windowDays int) *InsightsWorker {
	return &InsightsWorker{
		storage:    store,
		analyzer:   analyzer,
		amqpClient: amqpClient,
		interval:   interval,
		windowDays: windowDays,
	}
}

// Run starts the event consumer and the periodic refresh loop, blocking
// until the context is cancelled or either loop fails.
func (w *InsightsWorker) Run(ctx context.Context) error {
	// Compute once on startup so a fresh deployment has insights before
	// the first event arrives.
	if err := w.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup insights refresh failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.amqpClient != nil {
		g.Go(func() error {
			return w.amqpClient.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
				return w.HandleTransactionEvent(ctx, msg)
			})
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Refresh(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic insights refresh failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleTransactionEvent processes one change notification. Refreshes are
// debounced so a burst of events triggers a single recompute.
func (w *InsightsWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Transaction changed, refreshing insights",
		"id", msg.ID,
		"action", msg.Action)

	w.mu.Lock()
	if time.Since(w.lastRefresh) < 10*time.Second {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	return w.Refresh(ctx)
}

// Refresh recomputes insights over the recent transaction window and swaps
// them into storage.
func (w *InsightsWorker) Refresh(ctx context.Context) error {
	since := time.Now().AddDate(0, 0, -w.windowDays)
	transactions, err := w.storage.TransactionsSince(ctx, since, 1000)
	if err != nil {
		return fmt.Errorf("load recent transactions: %w", err)
	}

	computed := w.analyzer.Analyze(transactions)
	if err := w.storage.ReplaceActiveInsights(ctx, computed); err != nil {
		return fmt.Errorf("store insights: %w", err)
	}

	w.mu.Lock()
	w.lastRefresh = time.Now()
	w.mu.Unlock()

	slog.InfoContext(ctx, "Insights refreshed",
		"transactions", len(transactions),
		"insights", len(computed),
		"window_days", w.windowDays)
	return nil
}
