package service

import (
	"math"
	"strings"

	"greenhouse-server/internal/modules/telemetry/types"
)

// concentrationSensor reports whether a sensor carries a concentration-style
// quantity (CO2, VPD) for which an exact zero is physically implausible and
// must be treated as a gap rather than a data point.
func concentrationSensor(sensor string) bool {
	s := strings.ToLower(sensor)
	return strings.Contains(s, "co2") || strings.Contains(s, "vpd")
}

// Series derives the chart points for one sensor from the history entries,
// in entry order. Entries where the sensor is absent or null are skipped,
// concentration sensors additionally skip exact zeros, and retained values
// are rounded to two decimal places. Pure function of its inputs; callers
// must recompute on every state change rather than hold on to the result.
func Series(sensor string, history []types.HistoryEntry) []types.SeriesPoint {
	skipZero := concentrationSensor(sensor)
	points := make([]types.SeriesPoint, 0, len(history))
	for _, entry := range history {
		v, ok := entry.Data[sensor]
		if !ok || v == nil {
			continue
		}
		if skipZero && *v == 0 {
			continue
		}
		points = append(points, types.SeriesPoint{
			Time:  entry.Timestamp,
			Value: math.Round(*v*100) / 100,
		})
	}
	return points
}
