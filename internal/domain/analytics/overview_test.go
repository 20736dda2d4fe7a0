package analytics

import (
	"math"
	"testing"
)

func TestBuildOverviewZeroDenominators(t *testing.T) {
	o := BuildOverview(Counts{})

	rates := map[string]float64{
		"completion":    o.CompletionRate,
		"no-show":       o.NoShowRate,
		"cancellation":  o.CancellationRate,
		"bed occupancy": o.BedOccupancyRate,
		"avg revenue":   o.AvgRevenuePerVisit,
	}
	for name, r := range rates {
		if r != 0 {
			t.Fatalf("%s rate = %v, want 0 on empty data", name, r)
		}
		if math.IsNaN(r) || math.IsInf(r, 0) {
			t.Fatalf("%s rate is not finite: %v", name, r)
		}
	}
}

func TestBuildOverviewScenario(t *testing.T) {
	// Three appointments, one in each terminal state, and one completed
	// payment of 2000.
	c := Counts{
		Appointments: 3,
		AppointmentsByStatus: map[string]int{
			"completed": 1,
			"cancelled": 1,
			"no_show":   1,
		},
		Payments: 1,
		Revenue:  2000,
	}
	o := BuildOverview(c)

	third := 1.0 / 3.0
	if o.CompletionRate != third {
		t.Fatalf("completion rate = %v, want 1/3", o.CompletionRate)
	}
	if o.NoShowRate != third {
		t.Fatalf("no-show rate = %v, want 1/3", o.NoShowRate)
	}
	if o.CancellationRate != third {
		t.Fatalf("cancellation rate = %v, want 1/3", o.CancellationRate)
	}
	if o.Revenue != 2000 {
		t.Fatalf("revenue = %v, want 2000", o.Revenue)
	}
	if o.AvgRevenuePerVisit != 2000 {
		t.Fatalf("avg revenue per completed visit = %v, want 2000", o.AvgRevenuePerVisit)
	}
}

func TestBuildOverviewBedOccupancy(t *testing.T) {
	o := BuildOverview(Counts{TotalBeds: 200, OccupiedBeds: 150})
	if o.BedOccupancyRate != 0.75 {
		t.Fatalf("occupancy = %v, want 0.75", o.BedOccupancyRate)
	}
}

func TestValidators(t *testing.T) {
	if !ValidEntityKind(KindAppointments) || !ValidEntityKind(KindPayments) || !ValidEntityKind(KindPatients) {
		t.Fatal("known entity kinds rejected")
	}
	if ValidEntityKind("users") {
		t.Fatal("unknown entity kind accepted")
	}

	for _, g := range []string{GroupByDay, GroupByWeek, GroupByMonth} {
		if !ValidGroupBy(g) {
			t.Fatalf("group by %q rejected", g)
		}
	}
	if ValidGroupBy("hour") {
		t.Fatal("group by hour should be rejected")
	}
}
