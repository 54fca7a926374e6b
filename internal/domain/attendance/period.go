package attendance

import (
	"fmt"
	"time"
)

// Period is a reporting month. Month is zero-based (0 = January) to match
// the dashboard's month selector.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PeriodOf returns the period containing t in loc.
func PeriodOf(t time.Time, loc *time.Location) Period {
	local := t.In(loc)
	return Period{Month: int(local.Month()) - 1, Year: local.Year()}
}

func (p Period) Contains(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	return int(local.Month())-1 == p.Month && local.Year() == p.Year
}

func (p Period) String() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month+1), p.Year)
}
