package transcript

import (
	"fmt"
	"math"
)

// Timestamp formats seconds as [MM:SS.hh]. Minutes are not capped at 59.
func Timestamp(seconds float64) string {
	minutes := int(math.Floor(seconds / 60))
	rest := seconds - float64(minutes)*60
	return fmt.Sprintf("[%02d:%05.2f]", minutes, rest)
}
