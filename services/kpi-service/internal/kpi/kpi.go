// Package kpi derives the dashboard metrics from a single day's schedule.
// Every function is pure: one schedule in, one value out, no I/O, and no
// assumptions about field sanity beyond what it checks itself.
package kpi

import (
	"fmt"
	"math"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
)

// Lunch breaks shorter than this many minutes never satisfy the policy.
const minLunchBreakMinutes = 30

// CompletedVolumes counts visits that finished on the schedule's day.
func CompletedVolumes(s model.Schedule) int {
	count := 0
	for _, p := range s.Patients {
		if p.VisitStatus == model.VisitCompleted {
			count++
		}
	}
	return count
}

// AddOns counts visits booked on the day they were performed. Booking
// timestamps sometimes carry a time component, so both sides are truncated
// to the calendar date before comparing. An unparseable bookedDate never
// counts as an add-on.
func AddOns(s model.Schedule) int {
	scheduleDay, ok := normalizeDate(s.Date)
	if !ok {
		return 0
	}
	count := 0
	for _, p := range s.Patients {
		if day, ok := normalizeDate(p.BookedDate); ok && day == scheduleDay {
			count++
		}
	}
	return count
}

// AvgWaitTime reports the mean patient wait in minutes, rounded to the
// nearest whole minute. A patient waits from scheduledStartTime until
// readyTime; patients ready early contribute zero rather than a negative
// wait. Zero-valued timing fields mean the feed never filled them in, so
// those patients are skipped entirely.
func AvgWaitTime(s model.Schedule) int {
	total, eligible := 0, 0
	for _, p := range s.Patients {
		if p.ReadyTime == 0 || p.ScheduledStartTime == 0 {
			continue
		}
		wait := p.ReadyTime - p.ScheduledStartTime
		if wait < 0 {
			wait = 0
		}
		total += wait
		eligible++
	}
	if eligible == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(eligible)))
}

// AvgAppointmentsPerNurse divides total assigned patients by roster size.
// The denominator is the nurse count, not the distinct-patient count.
func AvgAppointmentsPerNurse(s model.Schedule) float64 {
	if len(s.Nurses) == 0 {
		return 0
	}
	total := 0
	for _, n := range s.Nurses {
		total += len(n.AssignedPatients)
	}
	return round2(float64(total) / float64(len(s.Nurses)))
}

// AvgNursingOvertime averages minutes worked past the scheduled shift end
// across the whole roster. Nurses missing either timestamp contribute zero
// overtime but still count in the denominator.
func AvgNursingOvertime(s model.Schedule) float64 {
	if len(s.Nurses) == 0 {
		return 0
	}
	total := 0
	for _, n := range s.Nurses {
		if n.ActualEndTime == nil || n.ScheduledEndTime == nil {
			continue
		}
		if overtime := *n.ActualEndTime - *n.ScheduledEndTime; overtime > 0 {
			total += overtime
		}
	}
	return round2(float64(total) / float64(len(s.Nurses)))
}

// AvgAppointmentsPerChair reports total patients over distinct chairs in
// use, formatted with two decimals ("3.00") because that is the string the
// dashboard parses. Chair id zero means the visit was never assigned a
// chair; such visits still count as patients but not as chairs.
func AvgAppointmentsPerChair(s model.Schedule) string {
	chairs := map[int]struct{}{}
	for _, p := range s.Patients {
		if p.AssignedChair != 0 {
			chairs[p.AssignedChair] = struct{}{}
		}
	}
	if len(chairs) == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(len(s.Patients))/float64(len(chairs)))
}

// LinkedAppointments counts visits chained to another visit.
func LinkedAppointments(s model.Schedule) int {
	count := 0
	for _, p := range s.Patients {
		if p.Linked {
			count++
		}
	}
	return count
}

// SameDayCancellations counts cancelled visits whose bookedDate equals the
// schedule date as a raw string. Unlike AddOns there is deliberately no
// calendar normalization here; the two counts are defined independently.
func SameDayCancellations(s model.Schedule) int {
	count := 0
	for _, p := range s.Patients {
		if p.BookedDate == s.Date && p.VisitStatus == model.VisitCancelled {
			count++
		}
	}
	return count
}

// NoShows counts visits the patient never arrived for.
func NoShows(s model.Schedule) int {
	count := 0
	for _, p := range s.Patients {
		if p.VisitStatus == model.VisitNoShow {
			count++
		}
	}
	return count
}

// CompliantLunchBreaks counts nurses whose lunch satisfies all three policy
// checks: at least 30 minutes long, starting no earlier than the shift
// start, and ending no later than the shift end. A nurse without recorded
// shift bounds cannot pass the bound checks and is excluded.
func CompliantLunchBreaks(s model.Schedule) int {
	count := 0
	for _, n := range s.Nurses {
		if n.StartTime == nil || n.EndTime == nil {
			continue
		}
		if n.LunchBreakEnd-n.LunchBreakStart < minLunchBreakMinutes {
			continue
		}
		if n.LunchBreakStart < *n.StartTime || n.LunchBreakEnd > *n.EndTime {
			continue
		}
		count++
	}
	return count
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeDate reduces a date string to its YYYY-MM-DD calendar day in UTC.
// The scheduling engine usually sends bare dates but booking timestamps can
// arrive as full RFC3339 instants.
func normalizeDate(raw string) (string, bool) {
	for _, layout := range []string{model.DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(model.DateLayout), true
		}
	}
	return "", false
}
