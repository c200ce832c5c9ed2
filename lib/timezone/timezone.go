package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// the dining halls publish menus on campus time, so all date math
// (day-of-week keys, "today" boundaries) is pinned to LA regardless
// of where the server happens to run
func Now() time.Time {
	return time.Now().In(Location)
}
