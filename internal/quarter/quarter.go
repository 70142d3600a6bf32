// Package quarter implements reporting-period arithmetic. A period is a
// fixed three-calendar-month window tokenized "Q<n>-<year>" with
// Q1=Jan-Mar, Q2=Apr-Jun, Q3=Jul-Sep, Q4=Oct-Dec.
package quarter

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// AnnouncementOffsetDays is the statutory filing window after period end.
// Fixed, not configurable.
const AnnouncementOffsetDays = 45

// Period identifies a reporting quarter
type Period struct {
	Quarter int // 1-4
	Year    int
}

var tokenRe = regexp.MustCompile(`^Q([1-4])-(\d{4})$`)

// Parse parses a period token of the form "Q<1-4>-<year>". A malformed
// token is a caller contract violation and is surfaced as an error.
func Parse(token string) (Period, error) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return Period{}, fmt.Errorf("malformed period token %q (want Q<1-4>-<year>)", token)
	}

	q, _ := strconv.Atoi(m[1])
	y, _ := strconv.Atoi(m[2])
	return Period{Quarter: q, Year: y}, nil
}

// String returns the canonical token, e.g. "Q3-2025"
func (p Period) String() string {
	return fmt.Sprintf("Q%d-%d", p.Quarter, p.Year)
}

// Current returns the period containing now
func Current(now time.Time) Period {
	return Period{
		Quarter: int(now.Month()-1)/3 + 1,
		Year:    now.Year(),
	}
}

// Previous returns the immediately preceding period
func (p Period) Previous() Period {
	if p.Quarter == 1 {
		return Period{Quarter: 4, Year: p.Year - 1}
	}
	return Period{Quarter: p.Quarter - 1, Year: p.Year}
}

// Next returns the immediately following period
func (p Period) Next() Period {
	if p.Quarter == 4 {
		return Period{Quarter: 1, Year: p.Year + 1}
	}
	return Period{Quarter: p.Quarter + 1, Year: p.Year}
}

// Before reports whether p is strictly earlier than other. Ordering is by
// (year, quarter), never by token string comparison.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Quarter < other.Quarter
}

// EndDate returns the last calendar day of the period
func (p Period) EndDate() time.Time {
	switch p.Quarter {
	case 1:
		return time.Date(p.Year, time.March, 31, 0, 0, 0, 0, time.UTC)
	case 2:
		return time.Date(p.Year, time.June, 30, 0, 0, 0, 0, time.UTC)
	case 3:
		return time.Date(p.Year, time.September, 30, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
}

// ExpectedAnnouncementDate returns the regulatory announcement deadline
// for a period-end date
func ExpectedAnnouncementDate(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, AnnouncementOffsetDays)
}

// FromDate returns the period containing the given date
func FromDate(d time.Time) Period {
	return Current(d)
}
