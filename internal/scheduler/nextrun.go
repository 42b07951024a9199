package scheduler

import "time"

// searchMinutes bounds NextRun to two calendar days.
const searchMinutes = 2 * 24 * 60

// NextRun returns the first whole minute strictly after `after` whose civil
// time in loc reads hour:minute. The search walks forward a minute at a
// time, so DST shifts move the real-time interval instead of the civil
// time. When `after` itself reads hour:minute, the next run is on a later
// civil date: the repeated hour of a fall-back day fires once. It returns
// the zero Time when no such minute exists in range.
func NextRun(after time.Time, loc *time.Location, hour, minute int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	from := after.In(loc)
	firedToday := from.Hour() == hour && from.Minute() == minute

	t := after.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < searchMinutes; i++ {
		c := t.In(loc)
		if c.Hour() == hour && c.Minute() == minute && !(firedToday && sameDate(c, from)) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dailyAt is a cron.Schedule firing once a day at a civil time.
type dailyAt struct {
	hour, minute int
	loc          *time.Location
}

func (d dailyAt) Next(t time.Time) time.Time {
	return NextRun(t, d.loc, d.hour, d.minute)
}
