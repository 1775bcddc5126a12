package activity

import (
	"cmp"
	"slices"
)

// Column is one weekday of the board with its activities in time order.
type Column struct {
	Day        Weekday
	Activities []Activity
}

// Columns derives the five weekday columns from the full activity list. Each column
// filters the list itself and sorts by Time; ties keep the input order.
func Columns(all []Activity) []Column {
	columns := make([]Column, 0, len(Weekdays))
	for _, weekday := range Weekdays {
		columns = append(columns, Column{
			Day:        weekday,
			Activities: forDay(all, weekday.Key),
		})
	}
	return columns
}

func forDay(all []Activity, day Day) []Activity {
	activities := []Activity{}
	for _, a := range all {
		if a.Day == day {
			activities = append(activities, a)
		}
	}
	slices.SortStableFunc(activities, func(a, b Activity) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return activities
}

// sortByWeek orders activities by weekday, then time. Used for exports.
func sortByWeek(all []Activity) []Activity {
	sorted := slices.Clone(all)
	slices.SortStableFunc(sorted, func(a, b Activity) int {
		if c := cmp.Compare(a.Day.index(), b.Day.index()); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
	return sorted
}
