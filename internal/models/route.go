package models

import "fmt"

// Route is an ordered path from a departure stop to a destination stop
// via zero or more intermediate stops. Slice order is travel order.
type Route struct {
	ID                int64  `json:"id" db:"id"`
	DepartureStop     *Stop  `json:"departure_stop"`
	DestinationStop   *Stop  `json:"destination_stop"`
	IntermediateStops []Stop `json:"intermediate_stops"`
}

// Label returns the display name used in reports, e.g. "Kyiv–Lviv"
func (r *Route) Label() string {
	if r.DepartureStop == nil || r.DestinationStop == nil {
		return fmt.Sprintf("route %d", r.ID)
	}
	return r.DepartureStop.Name + "–" + r.DestinationStop.Name
}

// IsLoop checks whether the route departs from and arrives at the same stop
func (r *Route) IsLoop() bool {
	return r.DepartureStop != nil && r.DestinationStop != nil &&
		r.DepartureStop.ID == r.DestinationStop.ID
}

// StopCount returns the total number of stops including both ends
func (r *Route) StopCount() int {
	n := len(r.IntermediateStops)
	if r.DepartureStop != nil {
		n++
	}
	if r.DestinationStop != nil {
		n++
	}
	return n
}

// UnknownRouteLabel is the report label for a route id that no longer resolves
func UnknownRouteLabel(routeID int64) string {
	return fmt.Sprintf("unknown/deleted route, id=%d", routeID)
}
