package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// BookingExpirationService cancels BOOKED tickets whose hold has lapsed,
// releasing their seats for sale again
type BookingExpirationService struct {
	tickets TicketStore
	logger  *logrus.Logger
	now     func() time.Time
}

// NewBookingExpirationService creates a new booking expiration service
func NewBookingExpirationService(tickets TicketStore, logger *logrus.Logger) *BookingExpirationService {
	return &BookingExpirationService{
		tickets: tickets,
		logger:  logger,
		now:     time.Now,
	}
}

// RunOnce runs a single expiration cycle and returns the number of released holds
func (s *BookingExpirationService) RunOnce(ctx context.Context) (int64, error) {
	released, err := s.tickets.CancelExpiredBookings(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to release expired holds")
		return 0, err
	}
	if released > 0 {
		s.logger.WithField("count", released).Info("Released expired holds")
	}
	return released, nil
}
