package game

import (
	"fmt"
	"math"
)

// FormatTime renders whole seconds as MM:SS. Minutes are not wrapped at an hour.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

var timeGrades = []struct {
	min   float64
	grade string
}{
	{300, "S+"},
	{240, "S"},
	{180, "A+"},
	{120, "A"},
	{90, "B+"},
	{60, "B"},
	{30, "C"},
}

func TimeGrade(seconds float64) string {
	for _, g := range timeGrades {
		if seconds >= g.min {
			return g.grade
		}
	}
	return "D"
}

func ComfortStatus(comfort float64) string {
	switch {
	case comfort >= 0.8:
		return "Very Happy"
	case comfort >= 0.6:
		return "Happy"
	case comfort >= 0.4:
		return "Neutral"
	case comfort >= 0.2:
		return "Uncomfortable"
	default:
		return "Very Unhappy"
	}
}
