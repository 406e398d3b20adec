package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := Schedule{
		Date: "2024-01-10",
		Patients: []Patient{
			{PatientID: 7, PatientMRN: "MRN-7", VisitStatus: VisitCompleted, BookedDate: "2024-01-10"},
		},
		Nurses: []Nurse{
			{NurseID: "N1"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Schedule)
	}{
		{"missing date", func(s *Schedule) { s.Date = "" }},
		{"bad date format", func(s *Schedule) { s.Date = "01/10/2024" }},
		{"patient without id", func(s *Schedule) { s.Patients[0].PatientID = 0 }},
		{"patient without mrn", func(s *Schedule) { s.Patients[0].PatientMRN = "" }},
		{"patient without status", func(s *Schedule) { s.Patients[0].VisitStatus = "" }},
		{"patient without booked date", func(s *Schedule) { s.Patients[0].BookedDate = "" }},
		{"nurse without id", func(s *Schedule) { s.Nurses[0].NurseID = "" }},
	}
	for _, tc := range cases {
		s := valid
		s.Patients = append([]Patient(nil), valid.Patients...)
		s.Nurses = append([]Nurse(nil), valid.Nurses...)
		tc.mut(&s)
		err := s.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("%s: error %v does not wrap ErrInvalidSchedule", tc.name, err)
		}
	}
}

func TestNullTimingFieldsDecodeAsNil(t *testing.T) {
	raw := `{
		"date": "2024-01-10",
		"patients": [{
			"patientId": 1,
			"patientMRN": "MRN-1",
			"visitStatus": "Completed",
			"bookedDate": "2024-01-10",
			"actualStartTime": null,
			"actualEndTime": 600,
			"department": null
		}],
		"nurses": [{
			"nurseId": "N1",
			"startTime": null,
			"endTime": 1020,
			"lunchBreakStart": 720,
			"lunchBreakEnd": 750
		}]
	}`

	var s Schedule
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	p := s.Patients[0]
	if p.ActualStartTime != nil {
		t.Fatal("null actualStartTime should decode as nil")
	}
	if p.ActualEndTime == nil || *p.ActualEndTime != 600 {
		t.Fatalf("actualEndTime decoded as %v", p.ActualEndTime)
	}
	if p.Department != nil {
		t.Fatal("null department should decode as nil")
	}
	n := s.Nurses[0]
	if n.StartTime != nil {
		t.Fatal("null startTime should decode as nil")
	}
	if n.EndTime == nil || *n.EndTime != 1020 {
		t.Fatalf("endTime decoded as %v", n.EndTime)
	}
	if n.LunchBreakStart != 720 || n.LunchBreakEnd != 750 {
		t.Fatalf("lunch break decoded as %d-%d", n.LunchBreakStart, n.LunchBreakEnd)
	}
}
