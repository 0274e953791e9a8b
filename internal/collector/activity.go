package collector

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Activity aggregates timestamps of contributions into yearly, daily, hourly and
// weekday/weekend buckets.
type Activity struct {
	yearly  map[int]int
	daily   map[string]int
	hourly  [24]int
	weekday int
	weekend int
	total   int
}

// NewActivity returns an empty aggregate.
func NewActivity() *Activity {
	return &Activity{yearly: make(map[int]int), daily: make(map[string]int)}
}

// Add counts one contribution at t. Buckets use the author's local clock when t carries a zone.
func (a *Activity) Add(t time.Time) {
	if t.IsZero() {
		return
	}
	a.yearly[t.Year()]++
	a.daily[t.Format("2006-01-02")]++
	a.hourly[t.Hour()]++
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		a.weekend++
	} else {
		a.weekday++
	}
	a.total++
}

// Total returns the number of counted contributions.
func (a *Activity) Total() int {
	return a.total
}

type dayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Emit appends the aggregate records to rs. Nothing is emitted for an empty aggregate.
func (a *Activity) Emit(rs *Records) {
	if a.total == 0 {
		return
	}

	rs.Add(signal.KindContributionTotal, strconv.Itoa(a.total), High)
	rs.Add(signal.KindTimePattern, fmt.Sprintf("Weekdays: %d, Weekends: %d", a.weekday, a.weekend), Medium)

	years := make([]int, 0, len(a.yearly))
	for y := range a.yearly {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		year := strconv.Itoa(y)
		rs.Add(signal.KindContributionYear, year, High).Meta = map[string]any{"year": year, "count": a.yearly[y]}
	}

	days := make([]dayCount, 0, len(a.daily))
	for d, c := range a.daily {
		days = append(days, dayCount{Date: d, Count: c})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	rs.Add(signal.KindContributionDates, days, High)

	hourly := make(map[string]int, 24)
	for h, c := range a.hourly {
		hourly[strconv.Itoa(h)] = c
	}
	rs.Add(signal.KindHourlyPattern, hourly, Medium)
}
