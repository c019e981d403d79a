package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/smarttransit/carrier-reservations/internal/models"
	"github.com/smarttransit/carrier-reservations/internal/services"
	"github.com/stretchr/testify/require"
)

var testDeparture = time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)

type stubStops struct {
	stops map[int64]*models.Stop
	err   error
	added []*models.Stop
}

func (s *stubStops) AddStop(_ context.Context, stop *models.Stop) error {
	if s.err != nil {
		return s.err
	}
	stop.ID = int64(100 + len(s.added))
	s.added = append(s.added, stop)
	return nil
}

func (s *stubStops) GetStopByID(_ context.Context, id int64) (*models.Stop, error) {
	return s.stops[id], s.err
}

func (s *stubStops) GetAllStops(context.Context) ([]models.Stop, error) {
	out := make([]models.Stop, 0, len(s.stops))
	for _, stop := range s.stops {
		out = append(out, *stop)
	}
	return out, s.err
}

type stubRoutes struct {
	routes map[int64]*models.Route
	err    error
	added  *models.Route
}

func (s *stubRoutes) AddRoute(_ context.Context, route *models.Route) error {
	if s.err != nil {
		return s.err
	}
	route.ID = 7
	s.added = route
	return nil
}

func (s *stubRoutes) GetRouteByID(_ context.Context, id int64) (*models.Route, error) {
	return s.routes[id], s.err
}

func (s *stubRoutes) GetAllRoutes(context.Context) ([]models.Route, error) {
	out := make([]models.Route, 0, len(s.routes))
	for _, route := range s.routes {
		out = append(out, *route)
	}
	return out, s.err
}

type stubFlights struct {
	flights  map[int64]*models.Flight
	byDate   func(time.Time) ([]models.Flight, error)
	err      error
	added    *models.Flight
	updated  *models.Flight
	notFound bool
}

func (s *stubFlights) AddFlight(_ context.Context, flight *models.Flight) error {
	if s.err != nil {
		return s.err
	}
	flight.ID = 42
	s.added = flight
	return nil
}

func (s *stubFlights) UpdateFlight(_ context.Context, flight *models.Flight) (bool, error) {
	s.updated = flight
	return !s.notFound, s.err
}

func (s *stubFlights) GetFlightByID(_ context.Context, id int64) (*models.Flight, error) {
	return s.flights[id], s.err
}

func (s *stubFlights) GetAllFlights(context.Context) ([]models.Flight, error) {
	out := make([]models.Flight, 0, len(s.flights))
	for _, flight := range s.flights {
		out = append(out, *flight)
	}
	return out, s.err
}

func (s *stubFlights) GetFlightsByDate(_ context.Context, date time.Time) ([]models.Flight, error) {
	return s.byDate(date)
}

type stubPassengers struct {
	passengers map[int64]*models.Passenger
	err        error
	lookedUp   [2]string
	updated    *models.Passenger
}

func (s *stubPassengers) FindByID(_ context.Context, id int64) (*models.Passenger, error) {
	return s.passengers[id], s.err
}

func (s *stubPassengers) FindByDocument(_ context.Context, documentType, documentNumber string) (*models.Passenger, error) {
	s.lookedUp = [2]string{documentType, documentNumber}
	for _, p := range s.passengers {
		if p.DocumentType == documentType && p.DocumentNumber == documentNumber {
			return p, s.err
		}
	}
	return nil, s.err
}

func (s *stubPassengers) GetAllPassengers(context.Context) ([]models.Passenger, error) {
	out := make([]models.Passenger, 0, len(s.passengers))
	for _, p := range s.passengers {
		out = append(out, *p)
	}
	return out, s.err
}

func (s *stubPassengers) UpdatePassenger(_ context.Context, passenger *models.Passenger) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.updated = passenger
	_, ok := s.passengers[passenger.ID]
	return ok, nil
}

type stubTickets struct {
	tickets      map[int64]*models.Ticket
	err          error
	statusFilter *models.TicketStatus
}

func (s *stubTickets) GetTicketByID(_ context.Context, id int64) (*models.Ticket, error) {
	return s.tickets[id], s.err
}

func (s *stubTickets) GetAllTickets(_ context.Context, status *models.TicketStatus) ([]models.Ticket, error) {
	s.statusFilter = status
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if status == nil || t.Status == *status {
			out = append(out, *t)
		}
	}
	return out, s.err
}

func (s *stubTickets) GetTicketsByFlightID(_ context.Context, flightID int64) ([]models.Ticket, error) {
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if t.Flight != nil && t.Flight.ID == flightID {
			out = append(out, *t)
		}
	}
	return out, s.err
}

func (s *stubTickets) GetTicketsByPassengerID(_ context.Context, passengerID int64) ([]models.Ticket, error) {
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if t.Passenger != nil && t.Passenger.ID == passengerID {
			out = append(out, *t)
		}
	}
	return out, s.err
}

type stubBooking struct {
	seatMap      func(int64) (*services.SeatMap, error)
	book         func(services.BookingRequest) (*models.Ticket, error)
	sell         func(int64) (*models.Ticket, error)
	cancel       func(int64) (*models.Ticket, error)
	changeStatus func(int64, models.FlightStatus) (*models.Flight, error)
}

func (s *stubBooking) SeatMap(_ context.Context, flightID int64) (*services.SeatMap, error) {
	return s.seatMap(flightID)
}

func (s *stubBooking) Book(_ context.Context, req services.BookingRequest) (*models.Ticket, error) {
	return s.book(req)
}

func (s *stubBooking) Sell(_ context.Context, ticketID int64) (*models.Ticket, error) {
	return s.sell(ticketID)
}

func (s *stubBooking) Cancel(_ context.Context, ticketID int64) (*models.Ticket, error) {
	return s.cancel(ticketID)
}

func (s *stubBooking) ChangeFlightStatus(_ context.Context, flightID int64, status models.FlightStatus) (*models.Flight, error) {
	return s.changeStatus(flightID, status)
}

type stubReports struct {
	sales      func(start, end time.Time) (map[string]models.RouteSales, error)
	counts     map[models.TicketStatus]int
	flightLoad func(int64) (*models.FlightLoad, error)
	dailyLoad  func(time.Time) ([]models.FlightLoad, error)
	err        error
}

func (s *stubReports) SalesByRoute(_ context.Context, start, end time.Time) (map[string]models.RouteSales, error) {
	return s.sales(start, end)
}

func (s *stubReports) TicketCounts(context.Context) (map[models.TicketStatus]int, error) {
	return s.counts, s.err
}

func (s *stubReports) FlightLoad(_ context.Context, flightID int64) (*models.FlightLoad, error) {
	return s.flightLoad(flightID)
}

func (s *stubReports) DailyLoad(_ context.Context, date time.Time) ([]models.FlightLoad, error) {
	return s.dailyLoad(date)
}

func kyiv() *models.Stop { return &models.Stop{ID: 1, Name: "Kyiv", City: "Kyiv"} }

func lviv() *models.Stop { return &models.Stop{ID: 2, Name: "Lviv", City: "Lviv"} }

func kyivLviv() *models.Route {
	return &models.Route{ID: 10, DepartureStop: kyiv(), DestinationStop: lviv(), IntermediateStops: []models.Stop{}}
}

func plannedFlight(id int64) *models.Flight {
	return &models.Flight{
		ID:                id,
		Route:             kyivLviv(),
		DepartureDateTime: testDeparture,
		ArrivalDateTime:   testDeparture.Add(7 * time.Hour),
		TotalSeats:        50,
		PricePerSeat:      600,
		Status:            models.FlightStatusPlanned,
	}
}

func olena() *models.Passenger {
	return &models.Passenger{
		ID:             5,
		FullName:       "Olena Kovalenko",
		DocumentType:   "PASSPORT",
		DocumentNumber: "AB123456",
		BenefitType:    models.BenefitStudent,
	}
}

func nullLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// perform sends a request through the engine; body is JSON-encoded unless nil
func perform(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
