package services

import "time"

var timeNow = time.Now

func stamp() time.Time {
	return timeNow().UTC()
}

func direct() time.Time {
	return time.Now() // want "time.Now\\(\\) called directly"
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start)
}
