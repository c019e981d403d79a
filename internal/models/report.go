package models

import (
	"math"
	"sort"
	"strconv"
)

// RouteSales aggregates sold tickets for one route
type RouteSales struct {
	TotalSales  float64 `json:"total_sales"`
	TicketCount int     `json:"ticket_count"`
}

// Add folds another aggregate into this one
func (s RouteSales) Add(other RouteSales) RouteSales {
	return RouteSales{
		TotalSales:  math.Round((s.TotalSales+other.TotalSales)*100) / 100,
		TicketCount: s.TicketCount + other.TicketCount,
	}
}

// FlightLoad describes seat occupancy of a flight
type FlightLoad struct {
	Flight     *Flight `json:"flight"`
	Occupied   int     `json:"occupied"`
	Total      int     `json:"total"`
	LoadFactor float64 `json:"load_factor"`
}

// LoadFactor returns occupied seats as a percentage of total seats, rounded to 0.01
func LoadFactor(occupied, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*10000) / 100
}

// SeatLabels returns the labels "1".."total" of a flight's seat space
func SeatLabels(total int) []string {
	labels := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		labels = append(labels, strconv.Itoa(i))
	}
	return labels
}

// FreeSeats returns {1..total} minus the occupied labels, in seat order.
// Occupied labels outside the numeric seat space are ignored.
func FreeSeats(total int, occupied map[string]struct{}) []string {
	free := make([]string, 0, total)
	for _, label := range SeatLabels(total) {
		if _, taken := occupied[label]; !taken {
			free = append(free, label)
		}
	}
	return free
}

// SortedSeats returns the seat labels of a set ordered numerically where possible
func SortedSeats(seats map[string]struct{}) []string {
	out := make([]string, 0, len(seats))
	for seat := range seats {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return out[i] < out[j]
	})
	return out
}
