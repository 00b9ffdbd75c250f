package dashsync

import (
	"errors"
	"strings"
	"time"

	"byov-backend/internal/features/enrollment"
)

// ErrMissingTechID is a validation failure: without a technician identifier
// there is nothing to key the external record on, so no network call is made.
var ErrMissingTechID = errors.New("record missing tech_id")

// dateLayouts are the ISO-ish shapes the wizard has historically stored.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// formatDate normalizes a stored date string to YYYY-MM-DD. Unparsable or
// absent dates become the empty string; the caller decides whether the key
// is required.
func formatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func joinIndustries(industries []string) string {
	return strings.Join(industries, ", ")
}

func hireStatus(isNewHire bool) string {
	if isNewHire {
		return "New Hire"
	}
	return "Existing Tech"
}

// BuildTechnicianPayload maps an enrollment onto the dashboard's create
// schema. Date keys are always present, empty when unparsable; optional
// vehicle fields and referredBy are omitted entirely when absent. The
// asymmetry is deliberate: the dashboard validates the date keys exist.
func BuildTechnicianPayload(rec *enrollment.Enrollment, now time.Time) (map[string]interface{}, error) {
	techID := strings.ToUpper(strings.TrimSpace(rec.TechID))
	if techID == "" {
		return nil, ErrMissingTechID
	}

	dateStarted := formatDate(rec.SubmissionDate)
	if dateStarted == "" {
		dateStarted = now.Format("2006-01-02")
	}

	payload := map[string]interface{}{
		"name":                   rec.FullName,
		"techId":                 techID,
		"region":                 rec.State,
		"district":               rec.District,
		"enrollmentStatus":       "Enrolled",
		"isNewHire":              rec.IsNewHire,
		"hireStatus":             hireStatus(rec.IsNewHire),
		"truckId":                rec.TruckNumber,
		"dateStartedByov":        dateStarted,
		"vinNumber":              rec.VIN,
		"industry":               joinIndustries(rec.Industries),
		"insuranceExpiration":    formatDate(rec.InsuranceExp),
		"registrationExpiration": formatDate(rec.RegistrationExp),
	}

	if rec.Make != "" {
		payload["vehicleMake"] = rec.Make
	}
	if rec.Model != "" {
		payload["vehicleModel"] = rec.Model
	}
	if rec.Year != "" {
		payload["vehicleYear"] = rec.Year
	}
	if rec.ReferredBy != "" {
		payload["referredBy"] = rec.ReferredBy
	}

	return payload, nil
}

// BuildExternalTechnicianPayload is the single-request variant: same mapping
// rules plus the contact fields the external endpoint accepts.
func BuildExternalTechnicianPayload(rec *enrollment.Enrollment, now time.Time) (map[string]interface{}, error) {
	payload, err := BuildTechnicianPayload(rec, now)
	if err != nil {
		return nil, err
	}

	payload["mobilePhoneNumber"] = rec.Phone
	payload["techEmail"] = rec.Email
	payload["cityState"] = rec.CityState

	return payload, nil
}

// BuildUpdatePayload maps an enrollment onto the update schema. Unlike the
// create path, empty values are pruned so a partial local record does not
// blank out dashboard fields.
func BuildUpdatePayload(rec *enrollment.Enrollment) map[string]interface{} {
	payload := map[string]interface{}{
		"name":                   rec.FullName,
		"techId":                 strings.ToUpper(strings.TrimSpace(rec.TechID)),
		"region":                 rec.State,
		"district":               rec.District,
		"referredBy":             rec.ReferredBy,
		"enrollmentStatus":       "Enrolled",
		"isNewHire":              rec.IsNewHire,
		"hireStatus":             hireStatus(rec.IsNewHire),
		"truckId":                rec.TruckNumber,
		"vinNumber":              rec.VIN,
		"vehicleMake":            rec.Make,
		"vehicleModel":           rec.Model,
		"vehicleYear":            rec.Year,
		"industry":               joinIndustries(rec.Industries),
		"insuranceExpiration":    formatDate(rec.InsuranceExp),
		"registrationExpiration": formatDate(rec.RegistrationExp),
	}

	for k, v := range payload {
		if s, ok := v.(string); ok && s == "" {
			delete(payload, k)
		}
	}
	return payload
}
