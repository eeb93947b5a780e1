package other

import "time"

func direct() time.Time {
	return time.Now()
}
