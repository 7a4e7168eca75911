package service

import (
	"sort"
	"strconv"
	"strings"

	"greenhouse-server/internal/modules/telemetry/types"
)

// Control fields the backend mixes into the reading rows. Matched against
// the lower-cased sensor id.
var reservedSensorNames = map[string]struct{}{
	"matlab_datenum": {},
	"unix_time":      {},
	"timestamp":      {},
}

// CleanReadings drops rows whose sensor id parses as a number or names a
// reserved control field, deduplicates by sensor id (first occurrence wins)
// and sorts the remainder ascending by sensor id. The result is
// deterministic for a given input and idempotent on already-clean input.
func CleanReadings(in []types.Reading) []types.Reading {
	out := make([]types.Reading, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		if _, err := strconv.ParseFloat(r.Sensor, 64); err == nil {
			continue
		}
		if _, reserved := reservedSensorNames[strings.ToLower(r.Sensor)]; reserved {
			continue
		}
		if _, dup := seen[r.Sensor]; dup {
			continue
		}
		seen[r.Sensor] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sensor < out[j].Sensor })
	return out
}
