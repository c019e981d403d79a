package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/config"
	"github.com/smarttransit/carrier-reservations/internal/database"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// Replays the reference reservation scenarios against a live database.
// Without -reset every stop name carries a run suffix so existing data is left alone.
func main() {
	var dbURLFlag string
	var reset bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&reset, "reset", false, "truncate all tables before running")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.WarnLevel)

	_ = godotenv.Load()
	dbCfg := config.LoadDatabase()
	if dbURLFlag != "" {
		dbCfg.URL = dbURLFlag
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}

	suffix := ""
	if reset {
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(database.Tables, ", "))); err != nil {
			logger.Fatalf("Failed to truncate tables: %v", err)
		}
	} else {
		suffix = " " + uuid.NewString()[:8]
	}

	s := newSmoke(db, logger, suffix)
	s.run(ctx, "A: route keeps intermediate stop order", s.scenarioA)
	s.run(ctx, "B: full flight rejects a second booking of seat 1", s.scenarioB)
	s.run(ctx, "C: sold ticket shows up in passenger history", s.scenarioC)
	s.run(ctx, "D: sales by route for a period", s.scenarioD)

	if s.failed > 0 {
		fmt.Printf("\n%d scenario(s) failed\n", s.failed)
		os.Exit(1)
	}
	fmt.Println("\nAll scenarios passed")
}

type smoke struct {
	stops      *database.StopRepository
	routes     *database.RouteRepository
	flights    *database.FlightRepository
	passengers *database.PassengerRepository
	tickets    *database.TicketRepository
	suffix     string
	failed     int
}

func newSmoke(db database.DB, logger *logrus.Logger, suffix string) *smoke {
	stops := database.NewStopRepository(db, logger)
	routes := database.NewRouteRepository(db, stops, logger)
	flights := database.NewFlightRepository(db, routes, logger)
	passengers := database.NewPassengerRepository(db, logger)
	return &smoke{
		stops:      stops,
		routes:     routes,
		flights:    flights,
		passengers: passengers,
		tickets:    database.NewTicketRepository(db, flights, passengers, logger),
		suffix:     suffix,
	}
}

func (s *smoke) run(ctx context.Context, name string, scenario func(context.Context) error) {
	if err := scenario(ctx); err != nil {
		s.failed++
		fmt.Printf("FAIL  %s: %v\n", name, err)
		return
	}
	fmt.Printf("ok    %s\n", name)
}

func (s *smoke) stop(ctx context.Context, name string) (*models.Stop, error) {
	stop := &models.Stop{Name: name + s.suffix, City: name}
	if err := s.stops.AddStop(ctx, stop); err != nil {
		return nil, fmt.Errorf("add stop %s: %w", name, err)
	}
	return stop, nil
}

func (s *smoke) route(ctx context.Context, from, to string, via ...string) (*models.Route, error) {
	departure, err := s.stop(ctx, from)
	if err != nil {
		return nil, err
	}
	destination, err := s.stop(ctx, to)
	if err != nil {
		return nil, err
	}
	route := &models.Route{DepartureStop: departure, DestinationStop: destination}
	for _, name := range via {
		stop, err := s.stop(ctx, name)
		if err != nil {
			return nil, err
		}
		route.IntermediateStops = append(route.IntermediateStops, *stop)
	}
	if err := s.routes.AddRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("add route: %w", err)
	}
	return route, nil
}

func (s *smoke) flight(ctx context.Context, route *models.Route, seats int, price float64) (*models.Flight, error) {
	departure := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	flight := &models.Flight{
		Route:             route,
		DepartureDateTime: departure,
		ArrivalDateTime:   departure.Add(7 * time.Hour),
		TotalSeats:        seats,
		PricePerSeat:      price,
		Status:            models.FlightStatusPlanned,
	}
	if err := s.flights.AddFlight(ctx, flight); err != nil {
		return nil, fmt.Errorf("add flight: %w", err)
	}
	return flight, nil
}

func (s *smoke) passenger(ctx context.Context) (*models.Passenger, error) {
	candidate := &models.Passenger{
		FullName:       "Olena Kovalenko",
		DocumentType:   "PASSPORT",
		DocumentNumber: strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12],
		BenefitType:    models.BenefitNone,
	}
	id, err := s.passengers.AddOrGetPassenger(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("add passenger: %w", err)
	}
	candidate.ID = id
	return candidate, nil
}

func (s *smoke) scenarioA(ctx context.Context) error {
	route, err := s.route(ctx, "Kyiv", "Lviv", "Zhytomyr", "Rivne")
	if err != nil {
		return err
	}

	loaded, err := s.routes.GetRouteByID(ctx, route.ID)
	if err != nil {
		return err
	}
	if loaded == nil {
		return fmt.Errorf("route %d not found after insert", route.ID)
	}

	var names []string
	for _, stop := range loaded.IntermediateStops {
		names = append(names, strings.TrimSuffix(stop.Name, s.suffix))
	}
	if strings.Join(names, ",") != "Zhytomyr,Rivne" {
		return fmt.Errorf("intermediate stops = %v, want [Zhytomyr Rivne]", names)
	}
	return nil
}

func (s *smoke) scenarioB(ctx context.Context) error {
	route, err := s.route(ctx, "Kyiv", "Lviv")
	if err != nil {
		return err
	}
	flight, err := s.flight(ctx, route, 50, 600)
	if err != nil {
		return err
	}
	passenger, err := s.passenger(ctx)
	if err != nil {
		return err
	}

	for seat := 1; seat <= 49; seat++ {
		ok, err := s.tickets.AddTicket(ctx, s.ticket(flight, passenger, strconv.Itoa(seat), models.TicketStatusSold))
		if err != nil {
			return fmt.Errorf("seat %d: %w", seat, err)
		}
		if !ok {
			return fmt.Errorf("seat %d unexpectedly taken", seat)
		}
	}

	ok, err := s.tickets.AddTicket(ctx, s.ticket(flight, passenger, "1", models.TicketStatusBooked))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("seat 1 was booked twice")
	}

	occupied, err := s.flights.GetOccupiedSeatsCount(ctx, flight.ID)
	if err != nil {
		return err
	}
	if occupied != 49 {
		return fmt.Errorf("occupied = %d, want 49", occupied)
	}
	return nil
}

func (s *smoke) scenarioC(ctx context.Context) error {
	route, err := s.route(ctx, "Kyiv", "Lviv")
	if err != nil {
		return err
	}
	flight, err := s.flight(ctx, route, 50, 600)
	if err != nil {
		return err
	}
	passenger, err := s.passenger(ctx)
	if err != nil {
		return err
	}

	ticket := s.ticket(flight, passenger, "12", models.TicketStatusBooked)
	if ok, err := s.tickets.AddTicket(ctx, ticket); err != nil || !ok {
		return fmt.Errorf("book seat 12: ok=%v err=%v", ok, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if ok, err := s.tickets.UpdateTicketStatus(ctx, ticket.ID, models.TicketStatusSold, &now); err != nil || !ok {
		return fmt.Errorf("sell ticket %d: ok=%v err=%v", ticket.ID, ok, err)
	}

	history, err := s.tickets.GetTicketsByPassengerID(ctx, passenger.ID)
	if err != nil {
		return err
	}
	if len(history) != 1 {
		return fmt.Errorf("history has %d tickets, want 1", len(history))
	}
	got := history[0]
	if got.Status != models.TicketStatusSold {
		return fmt.Errorf("status = %s, want SOLD", got.Status)
	}
	if got.PurchaseDateTime == nil || !got.PurchaseDateTime.Equal(now) {
		return fmt.Errorf("purchase time = %v, want %v", got.PurchaseDateTime, now)
	}
	return nil
}

func (s *smoke) scenarioD(ctx context.Context) error {
	route, err := s.route(ctx, "Kyiv", "Lviv")
	if err != nil {
		return err
	}
	flight, err := s.flight(ctx, route, 50, 600)
	if err != nil {
		return err
	}
	passenger, err := s.passenger(ctx)
	if err != nil {
		return err
	}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i, price := range []float64{600, 450.75} {
		ticket := s.ticket(flight, passenger, strconv.Itoa(i+1), models.TicketStatusSold)
		ticket.PricePaid = price
		ticket.BookingDateTime = day.Add(time.Duration(9+i) * time.Hour)
		if ok, err := s.tickets.AddTicket(ctx, ticket); err != nil || !ok {
			return fmt.Errorf("sell seat %d: ok=%v err=%v", i+1, ok, err)
		}
	}

	sales, err := s.tickets.GetSalesByRouteForPeriod(ctx, day, day)
	if err != nil {
		return err
	}
	got, ok := sales[route.Label()]
	if !ok {
		return fmt.Errorf("no sales for %q in %v", route.Label(), sales)
	}
	if got.TicketCount != 2 || math.Abs(got.TotalSales-1050.75) > 0.001 {
		return fmt.Errorf("sales = %+v, want 1050.75 over 2 tickets", got)
	}
	return nil
}

func (s *smoke) ticket(flight *models.Flight, passenger *models.Passenger, seat string, status models.TicketStatus) *models.Ticket {
	now := time.Now().UTC()
	ticket := &models.Ticket{
		Flight:          flight,
		Passenger:       passenger,
		SeatNumber:      seat,
		BookingDateTime: now,
		PricePaid:       flight.PricePerSeat,
		Status:          status,
	}
	if status == models.TicketStatusSold {
		ticket.PurchaseDateTime = &now
	}
	return ticket
}
