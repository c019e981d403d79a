package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smarttransit/carrier-reservations/internal/models"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidPeriod means a report period ends before it starts
var ErrInvalidPeriod = errors.New("report period end is before start")

// ReportService builds the back-office reports.
// Identical reports requested concurrently share one database round, which
// runs detached from any single caller's cancellation. Shared results must be
// treated as read-only by callers.
type ReportService struct {
	flights FlightStore
	tickets TicketStore
	group   singleflight.Group
}

// NewReportService creates a new ReportService
func NewReportService(flights FlightStore, tickets TicketStore) *ReportService {
	return &ReportService{flights: flights, tickets: tickets}
}

// SalesByRoute sums sold tickets per route label for the inclusive date range
func (s *ReportService) SalesByRoute(ctx context.Context, start, end time.Time) (map[string]models.RouteSales, error) {
	if end.Before(start) {
		return nil, ErrInvalidPeriod
	}
	key := "sales:" + dayKey(start) + ":" + dayKey(end)
	shared := context.WithoutCancel(ctx)
	sales, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.tickets.GetSalesByRouteForPeriod(shared, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	return sales.(map[string]models.RouteSales), nil
}

// TicketCounts returns the number of tickets in every status
func (s *ReportService) TicketCounts(ctx context.Context) (map[models.TicketStatus]int, error) {
	shared := context.WithoutCancel(ctx)
	counts, err, _ := s.group.Do("ticket-counts", func() (interface{}, error) {
		return s.tickets.GetTicketCountsByStatus(shared)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	return counts.(map[models.TicketStatus]int), nil
}

// FlightLoad computes the occupancy of one flight
func (s *ReportService) FlightLoad(ctx context.Context, flightID int64) (*models.FlightLoad, error) {
	flight, err := s.flights.GetFlightByID(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	if flight == nil {
		return nil, ErrFlightNotFound
	}
	return s.load(ctx, flight)
}

// DailyLoad computes the occupancy of every flight departing on date
func (s *ReportService) DailyLoad(ctx context.Context, date time.Time) ([]models.FlightLoad, error) {
	shared := context.WithoutCancel(ctx)
	loads, err, _ := s.group.Do("daily-load:"+dayKey(date), func() (interface{}, error) {
		flights, err := s.flights.GetFlightsByDate(shared, date)
		if err != nil {
			return nil, fmt.Errorf("failed to list flights: %w", err)
		}

		loads := make([]models.FlightLoad, 0, len(flights))
		for i := range flights {
			load, err := s.load(shared, &flights[i])
			if err != nil {
				return nil, err
			}
			loads = append(loads, *load)
		}
		return loads, nil
	})
	if err != nil {
		return nil, err
	}
	return loads.([]models.FlightLoad), nil
}

func (s *ReportService) load(ctx context.Context, flight *models.Flight) (*models.FlightLoad, error) {
	occupied, err := s.flights.GetOccupiedSeatsCount(ctx, flight.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count occupied seats: %w", err)
	}
	return &models.FlightLoad{
		Flight:     flight,
		Occupied:   occupied,
		Total:      flight.TotalSeats,
		LoadFactor: models.LoadFactor(occupied, flight.TotalSeats),
	}, nil
}

// dayKey identifies a calendar day together with its zone, since the same
// date in another zone covers a different span of time
func dayKey(t time.Time) string {
	return fmt.Sprintf("%s@%s", t.Format(time.DateOnly), t.Location())
}
