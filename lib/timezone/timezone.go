package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// force the campaign's home timezone because our servers can end up in
// any region, which would skew the wall-clock labels on donation events
func Now() time.Time {
	return time.Now().In(Location)
}
