package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format schedules are keyed by.
const DateLayout = "2006-01-02"

// Visit statuses the KPI computations care about. The scheduling engine
// sends others ("Scheduled", "In Progress", ...); they pass through untouched.
const (
	VisitCompleted = "Completed"
	VisitCancelled = "Cancelled"
	VisitNoShow    = "No Show"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// Schedule is one day of clinic activity: every patient visit and nurse
// shift planned for a single calendar date. The date string is the unique
// document key; lookups match it exactly.
type Schedule struct {
	Date     string    `json:"date"`
	Patients []Patient `json:"patients"`
	Nurses   []Nurse   `json:"nurses"`
}

// Patient is one visit on the schedule. Timing fields are minute offsets on
// the schedule's date; a zero in a required timing field means the upstream
// feed never populated it. Nullable fields are pointers and decode from
// JSON null as nil.
type Patient struct {
	PatientID   int    `json:"patientId"`
	PatientName string `json:"patientName"`
	PatientMRN  string `json:"patientMRN"`

	ReadyTime          int  `json:"readyTime"`
	Length             int  `json:"length"`
	DueTime            int  `json:"dueTime"`
	ScheduledStartTime int  `json:"scheduledStartTime"`
	ScheduledEndTime   int  `json:"scheduledEndTime"`
	ActualStartTime    *int `json:"actualStartTime"`
	ActualEndTime      *int `json:"actualEndTime"`
	ActualDuration     *int `json:"actualDuration"`

	Acuity                int     `json:"acuity"`
	InfusionType          string  `json:"infusionType"`
	VisitStatus           string  `json:"visitStatus"`
	Department            *string `json:"department"`
	ClinicProvider        *string `json:"clinicProvider"`
	ClinicAppointmentTime *string `json:"clinicAppointmentTime"`

	AssignedChair int    `json:"assignedChair"`
	AssignedNurse string `json:"assignedNurse"`
	Linked        bool   `json:"linked"`

	// BookedDate is when the visit was originally booked. It differs from
	// the schedule date when a visit was rescheduled.
	BookedDate string `json:"bookedDate"`

	// OriginalInfo snapshots the visit before its last edit. Audit only;
	// no KPI reads it.
	OriginalInfo *PatientSnapshot `json:"originalInfo,omitempty"`
}

// PatientSnapshot mirrors the patient fields as they were before an edit.
type PatientSnapshot struct {
	PatientID   int    `json:"patientId"`
	PatientName string `json:"patientName"`
	PatientMRN  string `json:"patientMRN"`

	ReadyTime          int  `json:"readyTime"`
	Length             int  `json:"length"`
	DueTime            int  `json:"dueTime"`
	ScheduledStartTime int  `json:"scheduledStartTime"`
	ScheduledEndTime   int  `json:"scheduledEndTime"`
	ActualStartTime    *int `json:"actualStartTime"`
	ActualEndTime      *int `json:"actualEndTime"`
	ActualDuration     *int `json:"actualDuration"`

	Acuity                int     `json:"acuity"`
	InfusionType          string  `json:"infusionType"`
	VisitStatus           string  `json:"visitStatus"`
	Department            *string `json:"department"`
	ClinicProvider        *string `json:"clinicProvider"`
	ClinicAppointmentTime *string `json:"clinicAppointmentTime"`

	AssignedChair int    `json:"assignedChair"`
	AssignedNurse string `json:"assignedNurse"`
	Linked        bool   `json:"linked"`
	BookedDate    string `json:"bookedDate"`
}

// Nurse is one shift on the schedule. Shift timing fields are nullable;
// lunch break bounds are always recorded by the scheduling engine.
type Nurse struct {
	ID         int    `json:"id"`
	NurseID    string `json:"nurseId"`
	NurseName  string `json:"nurseName"`
	NurseEmail string `json:"nurseEmail"`

	StartTime          *int `json:"startTime"`
	EndTime            *int `json:"endTime"`
	ScheduledStartTime *int `json:"scheduledStartTime"`
	ScheduledEndTime   *int `json:"scheduledEndTime"`
	ActualStartTime    *int `json:"actualStartTime"`
	ActualEndTime      *int `json:"actualEndTime"`

	LunchBreakStart int `json:"lunchBreakStart"`
	LunchBreakEnd   int `json:"lunchBreakEnd"`

	AssignedPatients []int `json:"assignedPatients"`
}

// Validate enforces required fields at the ingest boundary. The KPI layer
// never validates; anything that passed here is safe to compute over.
func (s *Schedule) Validate() error {
	if s.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidSchedule)
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidSchedule, s.Date)
	}
	for i, p := range s.Patients {
		if p.PatientID == 0 {
			return fmt.Errorf("%w: patients[%d] missing patientId", ErrInvalidSchedule, i)
		}
		if p.PatientMRN == "" {
			return fmt.Errorf("%w: patients[%d] missing patientMRN", ErrInvalidSchedule, i)
		}
		if p.VisitStatus == "" {
			return fmt.Errorf("%w: patients[%d] missing visitStatus", ErrInvalidSchedule, i)
		}
		if p.BookedDate == "" {
			return fmt.Errorf("%w: patients[%d] missing bookedDate", ErrInvalidSchedule, i)
		}
	}
	for i, n := range s.Nurses {
		if n.NurseID == "" {
			return fmt.Errorf("%w: nurses[%d] missing nurseId", ErrInvalidSchedule, i)
		}
	}
	return nil
}
