package attendance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawRecord is an attendance record as the upstream API sends it. Key casing
// is inconsistent across upstream versions, so decoding accepts both.
type RawRecord struct {
	Email     string
	Name      string
	EntryTime string
	ExitTime  string
}

var rawKeys = map[string][]string{
	"email":     {"email", "Email"},
	"name":      {"name", "Name", "employeeName", "EmployeeName"},
	"entryTime": {"entryTime", "EntryTime"},
	"exitTime":  {"exitTime", "ExitTime"},
}

func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	r.Email = pickString(fields, rawKeys["email"])
	r.Name = pickString(fields, rawKeys["name"])
	r.EntryTime = pickString(fields, rawKeys["entryTime"])
	r.ExitTime = pickString(fields, rawKeys["exitTime"])
	return nil
}

func (r RawRecord) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"email":     r.Email,
		"name":      r.Name,
		"entryTime": nullable(r.EntryTime),
		"exitTime":  nullable(r.ExitTime),
	}
	return json.Marshal(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// pickString returns the first non-empty value among keys. Non-string JSON
// values are kept as their literal text so they surface as data errors.
func pickString(fields map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Zone-less layouts are read in the aggregator's location, the way a browser
// reads "2024-03-01T09:00:00" as local time.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp. Strings with an offset keep it,
// others are interpreted in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// Normalize maps a raw record into the canonical Record. Unparseable
// timestamps are recorded as Issues instead of failing.
func Normalize(raw RawRecord, loc *time.Location) Record {
	rec := Record{
		Email:    strings.TrimSpace(raw.Email),
		Identity: NormalizeIdentity(raw.Email),
		Name:     strings.TrimSpace(raw.Name),
	}

	if raw.EntryTime != "" {
		if t, err := ParseTimestamp(raw.EntryTime, loc); err == nil {
			rec.EntryTime = &t
		} else {
			rec.Issues = append(rec.Issues, newDataError(rec.Identity, "entryTime", raw.EntryTime, err))
		}
	}

	if raw.ExitTime != "" {
		if t, err := ParseTimestamp(raw.ExitTime, loc); err == nil {
			rec.ExitTime = &t
		} else {
			rec.ExitMalformed = true
			rec.Issues = append(rec.Issues, newDataError(rec.Identity, "exitTime", raw.ExitTime, err))
		}
	}

	return rec
}

func NormalizeAll(raws []RawRecord, loc *time.Location) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw, loc))
	}
	return records
}

// NormalizeIdentity folds an email into the comparison key.
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
