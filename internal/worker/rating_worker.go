package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

const (
	// Debounce window - events for the same product within this duration
	// collapse into one refresh
	debounceWindow = 1 * time.Second

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// ReviewEvent is the shape of review events received from NATS
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ProductID uuid.UUID `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RatingUpdater recomputes and stores a product's rating
type RatingUpdater interface {
	Refresh(ctx context.Context, productID uuid.UUID) error
}

// RatingWorker processes review events and refreshes cached product ratings
// asynchronously
type RatingWorker struct {
	updater RatingUpdater
	logger  *logger.Logger

	mu             sync.Mutex
	pendingUpdates map[uuid.UUID]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	productID uuid.UUID
	timestamp time.Time
	timer     *time.Timer
}

// NewRatingWorker creates a new rating worker
func NewRatingWorker(updater RatingUpdater, log *logger.Logger) *RatingWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &RatingWorker{
		updater:        updater,
		logger:         log,
		pendingUpdates: make(map[uuid.UUID]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent processes a review event
func (w *RatingWorker) HandleEvent(data []byte) error {
	var event ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"event_type": event.EventType,
		"product_id": event.ProductID.String(),
		"timestamp":  event.Timestamp,
	}).Info("Received review event")

	w.scheduleUpdate(event.ProductID, event.Timestamp)

	return nil
}

// scheduleUpdate debounces refreshes: multiple events for the same product
// within the window result in a single recomputation
func (w *RatingWorker) scheduleUpdate(productID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingUpdates[productID]
	if found {
		if timestamp.Before(existing.timestamp) {
			w.logger.Debugf("Ignoring stale event for product %s", productID)
			return
		}
		existing.timer.Stop()
	} else {
		w.wg.Add(1)
	}

	timer := time.AfterFunc(debounceWindow, func() {
		w.processUpdate(productID)
	})

	w.pendingUpdates[productID] = &pendingUpdate{
		productID: productID,
		timestamp: timestamp,
		timer:     timer,
	}
}

// processUpdate executes the refresh with retry and exponential backoff
func (w *RatingWorker) processUpdate(productID uuid.UUID) {
	defer w.wg.Done()

	w.mu.Lock()
	delete(w.pendingUpdates, productID)
	w.mu.Unlock()

	w.logger.WithFields(map[string]interface{}{
		"product_id": productID.String(),
	}).Info("Processing rating refresh")

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]interface{}{
				"product_id": productID.String(),
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying rating refresh")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}
			backoff *= 2
		}

		if lastErr = w.updater.Refresh(w.ctx, productID); lastErr == nil {
			return
		}
	}

	// Acceptable to give up: the next review event triggers a full
	// recalculation anyway
	w.logger.Errorf(lastErr, "Giving up rating refresh for product %s after %d attempts", productID, maxRetries)
}

// Shutdown stops accepting events and waits for in-flight refreshes
func (w *RatingWorker) Shutdown(timeout time.Duration) {
	close(w.shutdownCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Rating worker drained")
	case <-time.After(timeout):
		w.logger.Warn("Rating worker shutdown timed out")
	}

	w.cancel()
}
