package resolve

import "time"

// Cutoff priority: explicit resolution/assertion time > end/close time >
// condition close time. "When is this market no longer tradable" is the one
// fact leakage prevention depends on, so extraction degrades gracefully
// across schema drift instead of failing.
var cutoffStrategies = []TimeStrategy{
	{Name: "resolution fields", Extract: cutoffFromResolution},
	{Name: "end/close fields", Extract: cutoffFromEndFields},
	{Name: "condition close fields", Extract: cutoffFromCondition},
}

var (
	resolutionKeys = []string{"assertion_time", "assertedAt", "resolution_time", "resolved_at", "resolvedAt"}
	endKeys        = []string{"end_date_iso", "endDate", "end_time", "endTime", "closed_time", "closedAt"}
	conditionKeys  = []string{"closeTime", "closedAt", "endTime"}
)

// Cutoff extracts the best-effort resolution cutoff from a raw payload.
func Cutoff(raw map[string]any) (time.Time, bool) {
	return firstTime(raw, cutoffStrategies)
}

// cutoffFromResolution reads resolution-like keys, nested under
// "resolution" first, then flat.
func cutoffFromResolution(raw map[string]any) (time.Time, bool) {
	res := subMap(raw, "resolution")
	for _, k := range resolutionKeys {
		if res != nil {
			if t, ok := timeKey(res, k); ok {
				return t, true
			}
		}
		if t, ok := timeKey(raw, k); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func cutoffFromEndFields(raw map[string]any) (time.Time, bool) {
	for _, k := range endKeys {
		if t, ok := timeKey(raw, k); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func cutoffFromCondition(raw map[string]any) (time.Time, bool) {
	cond := subMap(raw, "condition")
	if cond == nil {
		return time.Time{}, false
	}
	for _, k := range conditionKeys {
		if t, ok := timeKey(cond, k); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
