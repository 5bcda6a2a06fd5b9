package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		panic(err)
	}
}

// force timezone to be CST since bilibili reports dates in server
// time, doing date math in the host timezone will cause off-by-one
// days when comparing against <time.Time>.Year()/Month()/Day()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// Unix interprets a server-side unix timestamp in CST.
func Unix(sec int64) time.Time {
	return time.Unix(sec, 0).In(Location)
}
