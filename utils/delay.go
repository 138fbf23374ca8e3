package utils

import (
	"math/rand"
	"time"
)

// RandomDelay pauses execution for a random duration between min and max
func RandomDelay(min, max time.Duration) {
	if min >= max {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}
