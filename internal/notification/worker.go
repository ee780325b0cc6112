package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"waves-on-map-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending wave alerts as web push
// notifications. Jobs are location IDs whose highlight crossed the threshold.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case locationID := <-wp.jobs:
			log.Printf("Worker %d processing location %d", id, locationID)
			wp.notifyLocation(ctx, locationID)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(locationID int64) {
	wp.jobs <- locationID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// notifyLocation fetches the subscriptions for a location and pushes the
// wave alert to each of them.
func (wp *WorkerPool) notifyLocation(ctx context.Context, locationID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_location_mapping slm ON slm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("slm.location_id = ?", locationID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for location %d: %v", locationID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	var loc model.Location
	label := fmt.Sprintf("location %d", locationID)
	if err := wp.db.WithContext(ctx).Select("name").First(&loc, locationID).Error; err != nil {
		log.Printf("Error fetching location %d: %v", locationID, err)
	} else if loc.Name != "" {
		label = loc.Name
	}

	var hl model.WaveHighlight
	message := fmt.Sprintf("Waves building at %s", label)
	if err := wp.db.WithContext(ctx).First(&hl, "location_id = ?", locationID).Error; err == nil {
		message = fmt.Sprintf("Waves at %s reaching %.2fm at %s", label, hl.WaveHeight, hl.Time.Format("Mon 15:04"))
	}

	log.Printf("Sending %d notifications for location %d", len(subscriptions), locationID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Push services answer 410 once a subscription lapses.
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
