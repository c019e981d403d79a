package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// memoryStore keeps flights, passengers and tickets in maps and enforces the
// active-seat uniqueness the database index provides
type memoryStore struct {
	mu         sync.Mutex
	flights    map[int64]*models.Flight
	passengers map[int64]*models.Passenger
	tickets    map[int64]*models.Ticket
	nextID     int64
	err        error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		flights:    map[int64]*models.Flight{},
		passengers: map[int64]*models.Passenger{},
		tickets:    map[int64]*models.Ticket{},
		nextID:     100,
	}
}

func (m *memoryStore) addFlight(f *models.Flight) {
	m.flights[f.ID] = f
}

func (m *memoryStore) GetFlightByID(_ context.Context, id int64) (*models.Flight, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.flights[id]
	if !ok {
		return nil, nil
	}
	copied := *f
	return &copied, nil
}

func (m *memoryStore) GetFlightsByDate(_ context.Context, date time.Time) ([]models.Flight, error) {
	var out []models.Flight
	for _, f := range m.flights {
		if f.DepartureDateTime.YearDay() == date.YearDay() {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, m.err
}

func (m *memoryStore) GetOccupiedSeatsCount(ctx context.Context, flightID int64) (int, error) {
	seats, err := m.GetOccupiedSeatsForFlight(ctx, flightID)
	return len(seats), err
}

func (m *memoryStore) UpdateFlightStatus(_ context.Context, id int64, status models.FlightStatus) (bool, error) {
	f, ok := m.flights[id]
	if !ok {
		return false, nil
	}
	f.Status = status
	return true, nil
}

func (m *memoryStore) AddOrGetPassenger(_ context.Context, candidate *models.Passenger) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passengers {
		if p.SameDocument(candidate) {
			return p.ID, nil
		}
	}
	m.nextID++
	stored := *candidate
	stored.ID = m.nextID
	stored.BenefitType = candidate.EffectiveBenefit()
	m.passengers[stored.ID] = &stored
	return stored.ID, nil
}

func (m *memoryStore) FindByID(_ context.Context, id int64) (*models.Passenger, error) {
	p, ok := m.passengers[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *memoryStore) AddTicket(_ context.Context, ticket *models.Ticket) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, t := range m.tickets {
		if t.Flight.ID == ticket.Flight.ID && t.SeatNumber == ticket.SeatNumber && t.Status.IsActive() {
			return false, nil
		}
	}
	m.nextID++
	ticket.ID = m.nextID
	stored := *ticket
	m.tickets[stored.ID] = &stored
	return true, nil
}

func (m *memoryStore) UpdateTicketStatus(_ context.Context, id int64, status models.TicketStatus, purchaseTime *time.Time) (bool, error) {
	t, ok := m.tickets[id]
	if !ok {
		return false, nil
	}
	t.Status = status
	if status == models.TicketStatusSold {
		t.PurchaseDateTime = purchaseTime
	}
	return true, nil
}

func (m *memoryStore) GetTicketByID(_ context.Context, id int64) (*models.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (m *memoryStore) GetOccupiedSeatsForFlight(_ context.Context, flightID int64) (map[string]struct{}, error) {
	seats := map[string]struct{}{}
	for _, t := range m.tickets {
		if t.Flight.ID == flightID && t.Status.IsActive() {
			seats[t.SeatNumber] = struct{}{}
		}
	}
	return seats, m.err
}

func (m *memoryStore) GetSalesByRouteForPeriod(_ context.Context, start, end time.Time) (map[string]models.RouteSales, error) {
	sales := map[string]models.RouteSales{}
	for _, t := range m.tickets {
		if t.Status == models.TicketStatusSold {
			label := t.Flight.Route.Label()
			sales[label] = sales[label].Add(models.RouteSales{TotalSales: t.PricePaid, TicketCount: 1})
		}
	}
	return sales, m.err
}

func (m *memoryStore) GetTicketCountsByStatus(context.Context) (map[models.TicketStatus]int, error) {
	counts := map[models.TicketStatus]int{}
	for _, status := range models.TicketStatuses {
		counts[status] = 0
	}
	for _, t := range m.tickets {
		counts[t.Status]++
	}
	return counts, m.err
}

func (m *memoryStore) CancelExpiredBookings(_ context.Context, now time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, t := range m.tickets {
		if t.IsHoldExpired(now) {
			t.Status = models.TicketStatusCancelled
			n++
		}
	}
	return n, nil
}

var testNow = time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)

func kyivLviv() *models.Route {
	return &models.Route{
		ID:              10,
		DepartureStop:   &models.Stop{ID: 1, Name: "Kyiv"},
		DestinationStop: &models.Stop{ID: 2, Name: "Lviv"},
	}
}

func plannedFlight(id int64, seats int) *models.Flight {
	return &models.Flight{
		ID:                id,
		Route:             kyivLviv(),
		DepartureDateTime: testNow.Add(24 * time.Hour),
		ArrivalDateTime:   testNow.Add(31 * time.Hour),
		TotalSeats:        seats,
		PricePerSeat:      600,
		Status:            models.FlightStatusPlanned,
	}
}

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestBookingService(store *memoryStore) *BookingService {
	svc := NewBookingService(store, store, store, 30*time.Minute, nullLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}
