package version

import (
	"strconv"
	"time"
)

// Injected at build time with -ldflags.
var (
	version   = "unknown"
	buildTime = ""
)

func Version() string {
	return version
}

func BuildTime() (time.Time, error) {
	epoch, err := strconv.ParseInt(buildTime, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(epoch, 0), nil
}
