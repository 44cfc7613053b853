package model

import "time"

// Calendar types a tenant can select. Exactly one adapter is active per spa;
// anything unrecognized falls through to the config-driven custom adapter.
const (
	CalendarNone     = "none"
	CalendarAcuity   = "acuity"
	CalendarCalendly = "calendly"
	CalendarGoogle   = "google_calendar"
	CalendarMindbody = "mindbody"
	CalendarSimply   = "simplybook"
)

type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// BusinessHours holds weekday/weekend open-close pairs as HH:MM clock strings.
type BusinessHours struct {
	Weekday DayHours `json:"weekday"`
	Weekend DayHours `json:"weekend"`
}

// For selects the open/close pair for the given date. Saturday and Sunday
// use weekend hours.
func (h BusinessHours) For(day time.Time) DayHours {
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return h.Weekend
	}
	return h.Weekday
}

// DefaultBusinessHours is the fallback applied when a spa has no hours configured.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Weekday: DayHours{Open: "09:00", Close: "20:00"},
		Weekend: DayHours{Open: "10:00", Close: "18:00"},
	}
}

// CustomCalendarSettings drives the generic adapter for vendors without a
// dedicated integration. Every field has a documented default; tenants only
// fill in what their API deviates on. Time layouts are Go reference layouts.
type CustomCalendarSettings struct {
	APIURL          string `json:"api_url"`
	AuthType        string `json:"auth_type"` // api_key (default) or basic_auth
	Username        string `json:"username"`  // basic_auth only
	SlotsEndpoint   string `json:"slots_endpoint"`   // default /available-slots
	SlotsMethod     string `json:"slots_method"`     // default GET
	BookingEndpoint string `json:"booking_endpoint"` // default /appointments
	BookingMethod   string `json:"booking_method"`   // default POST
	DateParamName   string `json:"date_param_name"`  // default date
	DateFormat      string `json:"date_format"`      // default 2006-01-02
	// SlotsResponsePath is a dotted path into the vendor JSON locating the
	// slots array, e.g. "data.slots". Default "slots".
	SlotsResponsePath string `json:"slots_response_path"`
	StartTimeField    string `json:"start_time_field"`  // default start_time
	DurationField     string `json:"duration_field"`    // default duration
	StartTimeFormat   string `json:"start_time_format"` // empty = RFC 3339
}

// CalendarConfig is the per-tenant calendar integration row.
type CalendarConfig struct {
	SpaID        string
	CalendarType string
	Hours        *BusinessHours
	Custom       CustomCalendarSettings
	UpdatedAt    time.Time
}

type Service struct {
	ID              string
	SpaID           string
	Name            string
	DurationMinutes int
	PriceCents      int
}

type Location struct {
	ID    string
	SpaID string
	Name  string
	Hours *BusinessHours
}
