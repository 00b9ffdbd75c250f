package dashsync

import (
	"errors"
	"testing"
	"time"

	"byov-backend/internal/features/enrollment"
)

var buildNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestBuildTechnicianPayloadRequiresTechID(t *testing.T) {
	_, err := BuildTechnicianPayload(&enrollment.Enrollment{FullName: "Jo"}, buildNow)
	if !errors.Is(err, ErrMissingTechID) {
		t.Errorf("error = %v, want ErrMissingTechID", err)
	}

	_, err = BuildTechnicianPayload(&enrollment.Enrollment{TechID: "   "}, buildNow)
	if !errors.Is(err, ErrMissingTechID) {
		t.Errorf("whitespace tech id: error = %v, want ErrMissingTechID", err)
	}
}

func TestBuildTechnicianPayloadUppercasesTechID(t *testing.T) {
	payload, err := BuildTechnicianPayload(&enrollment.Enrollment{TechID: " ab123 "}, buildNow)
	if err != nil {
		t.Fatal(err)
	}
	if payload["techId"] != "AB123" {
		t.Errorf("techId = %v, want AB123", payload["techId"])
	}
}

func TestBuildTechnicianPayloadDates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain date", "2024-03-09", "2024-03-09"},
		{"rfc3339", "2024-03-09T10:30:00Z", "2024-03-09"},
		{"datetime no zone", "2024-03-09T10:30:00", "2024-03-09"},
		{"space separated", "2024-03-09 10:30:00", "2024-03-09"},
		{"garbage", "next tuesday", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &enrollment.Enrollment{TechID: "T1", InsuranceExp: tt.input}
			payload, err := BuildTechnicianPayload(rec, buildNow)
			if err != nil {
				t.Fatal(err)
			}
			got, present := payload["insuranceExpiration"]
			if !present {
				t.Fatal("insuranceExpiration key absent; date keys must always be present")
			}
			if got != tt.want {
				t.Errorf("insuranceExpiration = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTechnicianPayloadStartDateFallsBackToNow(t *testing.T) {
	rec := &enrollment.Enrollment{TechID: "T1"}
	payload, err := BuildTechnicianPayload(rec, buildNow)
	if err != nil {
		t.Fatal(err)
	}
	if payload["dateStartedByov"] != "2025-06-15" {
		t.Errorf("dateStartedByov = %v, want 2025-06-15", payload["dateStartedByov"])
	}

	rec.SubmissionDate = "2024-01-02"
	payload, _ = BuildTechnicianPayload(rec, buildNow)
	if payload["dateStartedByov"] != "2024-01-02" {
		t.Errorf("dateStartedByov = %v, want submission date", payload["dateStartedByov"])
	}
}

func TestBuildTechnicianPayloadOptionalFields(t *testing.T) {
	rec := &enrollment.Enrollment{TechID: "T1"}
	payload, err := BuildTechnicianPayload(rec, buildNow)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"vehicleMake", "vehicleModel", "vehicleYear", "referredBy"} {
		if _, present := payload[key]; present {
			t.Errorf("%s present for empty field, want omitted", key)
		}
	}

	rec.Make = "Ford"
	rec.Year = "2019"
	rec.ReferredBy = "J. Chen"
	payload, _ = BuildTechnicianPayload(rec, buildNow)
	if payload["vehicleMake"] != "Ford" || payload["vehicleYear"] != "2019" || payload["referredBy"] != "J. Chen" {
		t.Errorf("optional fields not carried: %v", payload)
	}
}

func TestBuildTechnicianPayloadIndustriesAndHireStatus(t *testing.T) {
	rec := &enrollment.Enrollment{
		TechID:     "T1",
		Industries: []string{"HVAC", "Plumbing"},
		IsNewHire:  true,
	}
	payload, err := BuildTechnicianPayload(rec, buildNow)
	if err != nil {
		t.Fatal(err)
	}
	if payload["industry"] != "HVAC, Plumbing" {
		t.Errorf("industry = %v, want comma joined", payload["industry"])
	}
	if payload["hireStatus"] != "New Hire" {
		t.Errorf("hireStatus = %v, want New Hire", payload["hireStatus"])
	}

	rec.IsNewHire = false
	payload, _ = BuildTechnicianPayload(rec, buildNow)
	if payload["hireStatus"] != "Existing Tech" {
		t.Errorf("hireStatus = %v, want Existing Tech", payload["hireStatus"])
	}
}

func TestBuildExternalTechnicianPayloadContactFields(t *testing.T) {
	rec := &enrollment.Enrollment{
		TechID:    "t9",
		Phone:     "555-0101",
		Email:     "t9@example.com",
		CityState: "Austin, TX",
	}
	payload, err := BuildExternalTechnicianPayload(rec, buildNow)
	if err != nil {
		t.Fatal(err)
	}
	if payload["mobilePhoneNumber"] != "555-0101" {
		t.Errorf("mobilePhoneNumber = %v", payload["mobilePhoneNumber"])
	}
	if payload["techEmail"] != "t9@example.com" {
		t.Errorf("techEmail = %v", payload["techEmail"])
	}
	if payload["cityState"] != "Austin, TX" {
		t.Errorf("cityState = %v", payload["cityState"])
	}
	if payload["techId"] != "T9" {
		t.Errorf("techId = %v, want uppercased", payload["techId"])
	}
}

func TestBuildUpdatePayloadPrunesEmpty(t *testing.T) {
	rec := &enrollment.Enrollment{
		TechID:   "t5",
		FullName: "Sam Ortiz",
		State:    "TX",
	}
	payload := BuildUpdatePayload(rec)

	if payload["name"] != "Sam Ortiz" || payload["region"] != "TX" {
		t.Errorf("kept fields wrong: %v", payload)
	}
	for _, key := range []string{"district", "vinNumber", "vehicleMake", "insuranceExpiration", "industry", "referredBy"} {
		if _, present := payload[key]; present {
			t.Errorf("%s present in update payload for empty field", key)
		}
	}
	// non-string fields survive pruning
	if _, present := payload["isNewHire"]; !present {
		t.Error("isNewHire pruned, want kept")
	}
}
