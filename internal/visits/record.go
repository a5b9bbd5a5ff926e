// Package visits records page visits into an append-only table.
package visits

import "time"

// TimeLayout is the wall-clock format stored in the time column.
const TimeLayout = "2006-01-02 15:04:05"

// DayLayout is the date prefix of TimeLayout.
const DayLayout = "2006-01-02"

// UnknownLocation is stored when geolocation is unavailable.
const UnknownLocation = "unknown"

// LocalLocation is stored for private and loopback addresses.
const LocalLocation = "LAN/local"

// Record is one logged visit.
type Record struct {
	ID        int64  `json:"id"`
	IP        string `json:"ip"`
	Location  string `json:"location"`
	Time      string `json:"time"` // TimeLayout in the configured zone
	Action    string `json:"action"`
	UserAgent string `json:"user_agent"`
}

// ParseTime parses a stored timestamp in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, loc)
}
