package domain

type DashboardStats struct {
	TotalVisitors           int64                       `json:"totalVisitors"`
	TotalAppointments       int64                       `json:"totalAppointments"`
	ActiveVisitors          int64                       `json:"activeVisitors"`
	TodaysAppointments      int64                       `json:"todaysAppointments"`
	AppointmentStatusCounts map[AppointmentStatus]int64 `json:"appointmentStatusCounts"`
}

type MonthlyCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type Trends struct {
	Visitors     []MonthlyCount `json:"visitors"`
	Appointments []MonthlyCount `json:"appointments"`
}

type TimeSlotCount struct {
	Time  string `json:"time"`
	Count int64  `json:"count"`
}

type HostActivity struct {
	HostID     string `json:"hostId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	Count      int64  `json:"appointmentCount"`
}
