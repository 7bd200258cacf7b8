package api

import (
	"context"
	"math"
)

// AttendanceAPI is the attendance collection plus its per-student view
type AttendanceAPI struct {
	*Resource[AttendanceRecord]
}

// NewAttendanceAPI creates an AttendanceAPI
func NewAttendanceAPI(gw Gateway) *AttendanceAPI {
	return &AttendanceAPI{Resource: NewResource[AttendanceRecord](gw, "/attendance")}
}

// ByStudent returns a student's records, optionally for one month ("2006-01")
func (a *AttendanceAPI) ByStudent(ctx context.Context, studentID, month string) ([]AttendanceRecord, error) {
	return call[[]AttendanceRecord](ctx, a.gw, get(join("attendance", "student", studentID), Params{"month": month}))
}

// AttendanceRate returns the share of sessions attended (present or late)
// as a percentage rounded to one decimal, or 0 for no records.
func AttendanceRate(records []AttendanceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	attended := 0
	for _, r := range records {
		if r.Status == AttendancePresent || r.Status == AttendanceLate {
			attended++
		}
	}
	return math.Round(float64(attended)*1000/float64(len(records))) / 10
}
