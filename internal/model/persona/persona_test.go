package persona_test

import (
	"testing"

	"github.com/travelagi/dashboard/internal/model/persona"
)

func TestDecodeObjectPayload(t *testing.T) {
	raw := []byte(`{
		"flightsInLast12Months": {"domestic": 12, "international": 3},
		"platformUsedToBookTripsUniqueCount": 2,
		"mealBookedPercentage": 80,
		"airlinePreferencePercentage": {"6E": 55.5, "AI": 30, "UK": 14.5},
		"topRoutes": [
			{"source": "DEL", "destination": "BOM", "routeType": "domestic", "tripCount": 5, "mealBookedCount": 0}
		]
	}`)

	p, err := persona.Decode(raw)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}

	if p.FlightsInLast12Months == nil || p.FlightsInLast12Months.Domestic != 12 {
		t.Fatalf("unexpected flight counts: %+v", p.FlightsInLast12Months)
	}
	if p.MealBookedPercentage == nil || *p.MealBookedPercentage != 80 {
		t.Fatalf("unexpected meal percentage: %v", p.MealBookedPercentage)
	}
	if len(p.TopRoutes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(p.TopRoutes))
	}
	if p.TopRoutes[0].MealBookedCount == nil || *p.TopRoutes[0].MealBookedCount != 0 {
		t.Fatal("zero meal count should survive decoding")
	}

	wantOrder := []string{"6E", "AI", "UK"}
	var gotOrder []string
	for pair := p.AirlinePreferencePercentage.Oldest(); pair != nil; pair = pair.Next() {
		gotOrder = append(gotOrder, pair.Key)
	}
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("expected %d airline entries, got %d", len(wantOrder), len(gotOrder))
	}
	for i, key := range wantOrder {
		if gotOrder[i] != key {
			t.Fatalf("airline order mismatch at %d: got %s want %s", i, gotOrder[i], key)
		}
	}
}

func TestDecodeStringPayload(t *testing.T) {
	raw := []byte(`"{\"mealBookedPercentage\":80}"`)

	p, err := persona.Decode(raw)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}
	if p.MealBookedPercentage == nil || *p.MealBookedPercentage != 80 {
		t.Fatalf("unexpected meal percentage: %v", p.MealBookedPercentage)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	if _, err := persona.Decode([]byte(`{"mealBookedPercentage":`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, err := persona.Decode(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestDecodeRejectsNegativeLeadTime(t *testing.T) {
	raw := []byte(`{"averageTimeInHoursBetweenBookingAndDeparture": -4}`)
	if _, err := persona.Decode(raw); err == nil {
		t.Fatal("expected error for negative lead time")
	}
}

func TestEncodeKeepsPreferenceOrder(t *testing.T) {
	raw := []byte(`{"seatPreferencePercentage": {"window": 70, "aisle": 20, "middle": 10}}`)

	p, err := persona.Decode(raw)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}

	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}

	again, err := persona.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode round trip err: %v", err)
	}

	want := []string{"window", "aisle", "middle"}
	i := 0
	for pair := again.SeatPreferencePercentage.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key != want[i] {
			t.Fatalf("seat order mismatch at %d: got %s want %s", i, pair.Key, want[i])
		}
		i++
	}
	if i != len(want) {
		t.Fatalf("expected %d seat entries, got %d", len(want), i)
	}
}
