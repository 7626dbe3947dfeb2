package jobs

import (
	"context"
	"log"
	"time"

	"github.com/kalhuss/property-manage/internal/services"
)

// OfferExpiryJob periodically cancels pending offers whose deadline has
// passed. It only runs when an expiry interval is configured.
type OfferExpiryJob struct {
	offerService *services.OfferService
	stop         chan struct{}
}

func NewOfferExpiryJob(offerService *services.OfferService) *OfferExpiryJob {
	return &OfferExpiryJob{
		offerService: offerService,
		stop:         make(chan struct{}),
	}
}

// Start begins the periodic expiry sweep
func (j *OfferExpiryJob) Start(interval time.Duration) {
	go func() {
		ctx := context.Background()
		j.sweep(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.sweep(ctx)
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop
func (j *OfferExpiryJob) Stop() {
	close(j.stop)
}

func (j *OfferExpiryJob) sweep(ctx context.Context) {
	expired, err := j.offerService.ExpirePendingOffers(ctx)
	if err != nil {
		log.Printf("Offer expiry sweep error: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Expired %d pending offers", expired)
	}
}
