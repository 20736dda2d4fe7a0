package analytics

// Counts holds the raw tallies gathered for a dashboard scope. The
// derived rates are computed from these by BuildOverview.
type Counts struct {
	Patients             int            `json:"patients"`
	Appointments         int            `json:"appointments"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	Payments             int            `json:"payments"`
	PendingPayments      int            `json:"pending_payments"`
	Revenue              float64        `json:"revenue"`
	Doctors              int            `json:"doctors"`
	ActiveDoctors        int            `json:"active_doctors"`
	TotalBeds            int            `json:"total_beds"`
	OccupiedBeds         int            `json:"occupied_beds"`
}

// Overview is the dashboard payload: the raw counts plus derived rates.
type Overview struct {
	Counts

	CompletionRate     float64 `json:"completion_rate"`
	NoShowRate         float64 `json:"no_show_rate"`
	CancellationRate   float64 `json:"cancellation_rate"`
	BedOccupancyRate   float64 `json:"bed_occupancy_rate"`
	AvgRevenuePerVisit float64 `json:"avg_revenue_per_visit"`
}

// BuildOverview derives the dashboard rates from raw counts. Every rate
// with a zero denominator comes out as 0, never NaN.
func BuildOverview(c Counts) *Overview {
	o := &Overview{Counts: c}

	o.CompletionRate = ratio(c.AppointmentsByStatus["completed"], c.Appointments)
	o.NoShowRate = ratio(c.AppointmentsByStatus["no_show"], c.Appointments)
	o.CancellationRate = ratio(c.AppointmentsByStatus["cancelled"], c.Appointments)
	o.BedOccupancyRate = ratio(c.OccupiedBeds, c.TotalBeds)

	if completed := c.AppointmentsByStatus["completed"]; completed > 0 {
		o.AvgRevenuePerVisit = c.Revenue / float64(completed)
	}

	return o
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
