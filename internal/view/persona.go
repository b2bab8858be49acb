package view

import (
	"strconv"

	"github.com/travelagi/dashboard/internal/model/persona"
)

// PersonaView is the fully resolved render tree for the persona dashboard.
// Building it is a pure function of the persona record: absent facets simply
// do not appear, and no element keeps state of its own.
type PersonaView struct {
	Stats       *StatsSection
	Booking     *BookingSection
	Preferences []PreferenceSection
	Routes      []RouteCard
}

// StatsSection shows the flight statistic cards.
type StatsSection struct {
	Cards []StatCard
}

// StatCard is one numeric headline with its captions.
type StatCard struct {
	Title    string
	Value    string
	Subtitle string
	Icon     string
}

// BookingSection groups the booking-behavior progress bars.
type BookingSection struct {
	Bars            []Bar
	AverageLeadTime string
}

// Bar is a labelled progress bar; Width is pre-clamped to [0, 100].
type Bar struct {
	Label string
	Value string
	Width float64
}

// PreferenceSection renders one preference map as rows of bars.
type PreferenceSection struct {
	Title string
	Icon  string
	Rows  []Bar
}

// RouteCard is one entry of the top-routes list, 1-indexed for display.
type RouteCard struct {
	Number          int
	Source          string
	Destination     string
	RouteType       string
	TripCount       int
	AverageLeadTime string
	MealBookedCount string
	Preferences     []PreferenceSection
}

// Build derives the render tree from a persona record. A nil persona yields
// a nil view, which the page template treats as "nothing to show yet".
func Build(p *persona.TravelPersona) *PersonaView {
	if p == nil {
		return nil
	}

	v := &PersonaView{
		Stats:       buildStats(p),
		Booking:     buildBooking(p),
		Preferences: buildTopPreferences(p),
		Routes:      buildRoutes(p.TopRoutes),
	}
	return v
}

func buildStats(p *persona.TravelPersona) *StatsSection {
	if p.FlightsInLast12Months == nil {
		return nil
	}

	cards := []StatCard{
		{Title: "Domestic Flights", Value: strconv.Itoa(p.FlightsInLast12Months.Domestic), Subtitle: "Last 12 months", Icon: "✈️"},
		{Title: "International Flights", Value: strconv.Itoa(p.FlightsInLast12Months.International), Subtitle: "Last 12 months", Icon: "🌍"},
	}
	if p.PlatformUsedToBookTripsUniqueCount != nil {
		cards = append(cards, StatCard{
			Title:    "Booking Platforms",
			Value:    strconv.Itoa(*p.PlatformUsedToBookTripsUniqueCount),
			Subtitle: "Unique platforms used",
			Icon:     "📱",
		})
	}
	return &StatsSection{Cards: cards}
}

func buildBooking(p *persona.TravelPersona) *BookingSection {
	section := BookingSection{}
	if p.MealBookedPercentage != nil {
		section.Bars = append(section.Bars, bar("Meal Booking", *p.MealBookedPercentage))
	}
	if p.SeatBookedPercentage != nil {
		section.Bars = append(section.Bars, bar("Seat Booking", *p.SeatBookedPercentage))
	}
	if p.ConvenienceFeePaidPercentage != nil {
		section.Bars = append(section.Bars, bar("Convenience Fee Paid", *p.ConvenienceFeePaidPercentage))
	}
	if p.AverageBookingLeadTimeHours != nil {
		section.AverageLeadTime = FormatTime(*p.AverageBookingLeadTimeHours)
	}

	if len(section.Bars) == 0 && section.AverageLeadTime == "" {
		return nil
	}
	return &section
}

func buildTopPreferences(p *persona.TravelPersona) []PreferenceSection {
	var sections []PreferenceSection
	appendSection := func(title, icon string, m *persona.PreferenceMap) {
		if rows := preferenceRows(m); len(rows) > 0 {
			sections = append(sections, PreferenceSection{Title: title, Icon: icon, Rows: rows})
		}
	}

	appendSection("Seat Preferences", "💺", p.SeatPreferencePercentage)
	appendSection("Class Preferences", "🎫", p.ClassPreferencePercentage)
	appendSection("Departure Time Preferences", "🕐", p.DepartureTimePreferencePercentage)
	appendSection("Flight Type Preferences", "🛫", p.FlightWithStopsPercentage)
	appendSection("Airline Preferences", "✈️", p.AirlinePreferencePercentage)
	return sections
}

func buildRoutes(routes []persona.Route) []RouteCard {
	cards := make([]RouteCard, 0, len(routes))
	for i, route := range routes {
		card := RouteCard{
			Number:      i + 1,
			Source:      route.Source,
			Destination: route.Destination,
			RouteType:   route.RouteType,
			TripCount:   route.TripCount,
		}
		if route.AverageBookingLeadTimeHours != nil && *route.AverageBookingLeadTimeHours != 0 {
			card.AverageLeadTime = FormatTime(*route.AverageBookingLeadTimeHours)
		}
		if route.MealBookedCount != nil {
			// Zero is a real count and still shows.
			card.MealBookedCount = strconv.Itoa(*route.MealBookedCount)
		}

		appendSection := func(title string, m *persona.PreferenceMap) {
			if rows := preferenceRows(m); len(rows) > 0 {
				card.Preferences = append(card.Preferences, PreferenceSection{Title: title, Rows: rows})
			}
		}
		appendSection("Airline Preference", route.AirlinePreferencePercentage)
		appendSection("Seat Preference", route.SeatPreferencePercentage)
		appendSection("Departure Time Preference", route.DepartureTimePreferencePercentage)
		appendSection("Flight Type", route.FlightWithStopsPercentage)

		cards = append(cards, card)
	}
	return cards
}

// preferenceRows walks the map in insertion order; an absent or empty map
// yields no rows, which suppresses the section entirely.
func preferenceRows(m *persona.PreferenceMap) []Bar {
	if m == nil || m.Len() == 0 {
		return nil
	}

	rows := make([]Bar, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, Bar{
			Label: pair.Key,
			Value: FormatPercentage(pair.Value),
			Width: BarWidth(pair.Value),
		})
	}
	return rows
}

func bar(label string, value float64) Bar {
	return Bar{Label: label, Value: FormatPercentage(value), Width: BarWidth(value)}
}
