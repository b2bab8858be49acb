package persona

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PreferenceMap holds percentage values keyed by dynamic labels (airline
// codes, seat names, departure-time buckets). Wire order is preserved so the
// dashboard renders rows in the order the persona service emitted them.
type PreferenceMap = orderedmap.OrderedMap[string, any]

// TravelPersona is the travel/booking behavior summary computed by the
// external persona service. Every field is optional: absence suppresses the
// corresponding dashboard section instead of being an error.
type TravelPersona struct {
	FlightsInLast12Months              *FlightCounts `json:"flightsInLast12Months,omitempty"`
	PlatformUsedToBookTripsUniqueCount *int          `json:"platformUsedToBookTripsUniqueCount,omitempty"`
	MealBookedPercentage               *float64      `json:"mealBookedPercentage,omitempty"`
	SeatBookedPercentage               *float64      `json:"seatBookedPercentage,omitempty"`
	// Key spelling matches the persona service wire format.
	ConvenienceFeePaidPercentage      *float64       `json:"conviencenessFeePaidPercentage,omitempty"`
	AverageBookingLeadTimeHours       *float64       `json:"averageTimeInHoursBetweenBookingAndDeparture,omitempty"`
	SeatPreferencePercentage          *PreferenceMap `json:"seatPreferencePercentage,omitempty"`
	ClassPreferencePercentage         *PreferenceMap `json:"classPreferencePercentage,omitempty"`
	DepartureTimePreferencePercentage *PreferenceMap `json:"departureTimePreferencePercentage,omitempty"`
	FlightWithStopsPercentage         *PreferenceMap `json:"flightWithStopsPercentage,omitempty"`
	AirlinePreferencePercentage       *PreferenceMap `json:"airlinePreferencePercentage,omitempty"`
	TopRoutes                         []Route        `json:"topRoutes,omitempty"`
}

// FlightCounts groups flight totals by category.
type FlightCounts struct {
	Domestic      int `json:"domestic"`
	International int `json:"international"`
}

// Route describes one recurring route in the persona's travel history.
type Route struct {
	Source                            string         `json:"source"`
	Destination                       string         `json:"destination"`
	RouteType                         string         `json:"routeType"`
	TripCount                         int            `json:"tripCount"`
	AverageBookingLeadTimeHours       *float64       `json:"averageTimeInHoursBetweenBookingAndDeparture,omitempty"`
	MealBookedCount                   *int           `json:"mealBookedCount,omitempty"`
	AirlinePreferencePercentage       *PreferenceMap `json:"airlinePreferencePercentage,omitempty"`
	SeatPreferencePercentage          *PreferenceMap `json:"seatPreferencePercentage,omitempty"`
	DepartureTimePreferencePercentage *PreferenceMap `json:"departureTimePreferencePercentage,omitempty"`
	FlightWithStopsPercentage         *PreferenceMap `json:"flightWithStopsPercentage,omitempty"`
}

// Decode normalizes a persona payload from the event channel. The service
// delivers the persona either as a JSON object or as a string containing
// JSON; both forms are validated here at the boundary rather than trusted
// downstream.
func Decode(raw []byte) (*TravelPersona, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty persona payload")
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("unquote persona payload: %w", err)
		}
		trimmed = []byte(inner)
	}

	var p TravelPersona
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("parse persona payload: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate rejects personas that break the non-negative duration invariant.
// Percentages outside [0,100] are allowed through; the renderer clamps bar
// widths instead of rejecting the whole delivery.
func (p *TravelPersona) Validate() error {
	if p.AverageBookingLeadTimeHours != nil && *p.AverageBookingLeadTimeHours < 0 {
		return fmt.Errorf("negative booking lead time: %v", *p.AverageBookingLeadTimeHours)
	}
	for i := range p.TopRoutes {
		lead := p.TopRoutes[i].AverageBookingLeadTimeHours
		if lead != nil && *lead < 0 {
			return fmt.Errorf("route %d: negative booking lead time: %v", i, *lead)
		}
	}
	return nil
}

// Encode serializes the persona for the durable cache. Preference maps keep
// their wire order, so a cached persona renders identically after restart.
func (p *TravelPersona) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode persona: %w", err)
	}
	return data, nil
}
