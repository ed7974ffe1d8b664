package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		// korea has no daylight saving, a fixed zone is exact when tzdata is missing
		Location = time.FixedZone("KST", 9*60*60)
	}
}

// force timezone to be in Seoul, dates on the blog platform are all local
// to it, so Year()/Month()/Day() only line up with what a page shows in this zone.
func Now() time.Time {
	return time.Now().In(Location)
}

// FromUnixMilli converts a millisecond epoch timestamp, as the search api
// reports them, to a time in Location.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).In(Location)
}
