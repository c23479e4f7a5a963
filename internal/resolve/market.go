package resolve

import "time"

// marketIDStrategies: provider id > internal id > slug.
var marketIDStrategies = []StringStrategy{
	{Name: "id", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "id")
	}},
	{Name: "market_id", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "market_id")
	}},
	{Name: "slug", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "slug")
	}},
}

// MarketID extracts the stable market identity from a raw payload.
func MarketID(raw map[string]any) (string, bool) {
	return firstString(raw, marketIDStrategies)
}

var eventIDStrategies = []StringStrategy{
	{Name: "event_id", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "event_id")
	}},
	{Name: "eventId", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "eventId")
	}},
}

// EventID extracts the owning event group id when the payload carries one.
// Callers synthesize "ev_<market_id>" when it does not.
func EventID(raw map[string]any) (string, bool) {
	return firstString(raw, eventIDStrategies)
}

var conditionIDStrategies = []StringStrategy{
	{Name: "condition.id", Extract: func(raw map[string]any) (string, bool) {
		if cond := subMap(raw, "condition"); cond != nil {
			return stringKey(cond, "id")
		}
		return "", false
	}},
	{Name: "condition_id", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "condition_id")
	}},
	{Name: "conditionId", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "conditionId")
	}},
}

// ConditionID extracts the CLOB condition id used as the holders lookup key.
func ConditionID(raw map[string]any) (string, bool) {
	return firstString(raw, conditionIDStrategies)
}

var questionStrategies = []StringStrategy{
	{Name: "question", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "question")
	}},
	{Name: "title", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "title")
	}},
}

// Question extracts the market question text.
func Question(raw map[string]any) (string, bool) {
	return firstString(raw, questionStrategies)
}

var slugStrategies = []StringStrategy{
	{Name: "slug", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "slug")
	}},
	{Name: "market_slug", Extract: func(raw map[string]any) (string, bool) {
		return stringKey(raw, "market_slug")
	}},
}

// Slug extracts the provider slug.
func Slug(raw map[string]any) (string, bool) {
	return firstString(raw, slugStrategies)
}

var endTimeKeys = []string{"end_date_iso", "endDate", "end_time", "endTime"}

// EndTime extracts the scheduled end time.
func EndTime(raw map[string]any) (time.Time, bool) {
	for _, k := range endTimeKeys {
		if t, ok := timeKey(raw, k); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
