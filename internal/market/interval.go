package market

import (
	"strconv"
	"strings"
	"time"
)

// ParseIntervalDuration 将 K 线周期字符串（如 1m、15m、4h）换算为时长。
func ParseIntervalDuration(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return 0, false
	}
	value, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || value <= 0 {
		return 0, false
	}
	switch interval[len(interval)-1] {
	case 'm':
		return time.Duration(value) * time.Minute, true
	case 'h':
		return time.Duration(value) * time.Hour, true
	case 'd':
		return time.Duration(value) * 24 * time.Hour, true
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
