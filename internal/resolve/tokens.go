package resolve

import "strings"

// TokenStrategy extracts YES/NO token ids from one payload layout.
// Either side may come back empty; sides are merged across strategies
// independently so a partial match (YES found, NO missing) is retained.
type TokenStrategy struct {
	Name    string
	Extract func(raw map[string]any) (yes, no string)
}

var tokenStrategies = []TokenStrategy{
	{Name: "token arrays", Extract: tokensFromArrays},
	{Name: "condition.tokens map", Extract: tokensFromCondition},
	{Name: "flat keys", Extract: tokensFromFlatKeys},
	{Name: "outcomeTokens dict", Extract: tokensFromOutcomeDict},
}

// TokenIDs extracts YES/NO token ids from a raw market payload, trying
// each known layout in order. Empty string means the side was not found.
func TokenIDs(raw map[string]any) (yes, no string) {
	for _, s := range tokenStrategies {
		y, n := s.Extract(raw)
		if yes == "" {
			yes = y
		}
		if no == "" {
			no = n
		}
		if yes != "" && no != "" {
			break
		}
	}
	return yes, no
}

// tokensFromArrays handles tokens/outcomeTokens as arrays of
// {token_id|tokenId|id, outcome|name} objects.
func tokensFromArrays(raw map[string]any) (yes, no string) {
	for _, key := range []string{"tokens", "outcomeTokens"} {
		arr, ok := raw[key].([]any)
		if !ok {
			continue
		}
		y, n := PickYesNo(arr)
		if yes == "" {
			yes = y
		}
		if no == "" {
			no = n
		}
	}
	return yes, no
}

// PickYesNo scans a decoded tokens array for the first YES and first NO
// token id. Outcome labels are matched case-insensitively by substring.
func PickYesNo(arr []any) (yes, no string) {
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tok := firstOf(obj, "token_id", "tokenId", "id")
		if tok == "" {
			continue
		}
		outcome := strings.ToLower(strings.TrimSpace(firstOf(obj, "outcome", "name")))
		switch {
		case strings.Contains(outcome, "yes"):
			if yes == "" {
				yes = tok
			}
		case strings.Contains(outcome, "no"):
			if no == "" {
				no = tok
			}
		}
	}
	return yes, no
}

// tokensFromCondition handles condition.tokens.{yes,no} (and upper-case
// variants).
func tokensFromCondition(raw map[string]any) (yes, no string) {
	cond := subMap(raw, "condition")
	if cond == nil {
		return "", ""
	}
	toks := subMap(cond, "tokens")
	if toks == nil {
		return "", ""
	}
	yes = firstOf(toks, "yes", "YES")
	no = firstOf(toks, "no", "NO")
	return yes, no
}

// tokensFromFlatKeys handles flat outcomeTokenYes/outcomeTokenNo keys and
// tokens as a {yes,no} map.
func tokensFromFlatKeys(raw map[string]any) (yes, no string) {
	yes = firstOf(raw, "outcomeTokenYes")
	no = firstOf(raw, "outcomeTokenNo")
	if toks := subMap(raw, "tokens"); toks != nil {
		if yes == "" {
			yes = firstOf(toks, "yes")
		}
		if no == "" {
			no = firstOf(toks, "no")
		}
	}
	return yes, no
}

// tokensFromOutcomeDict handles outcomeTokens as a single {yes,no} dict.
func tokensFromOutcomeDict(raw map[string]any) (yes, no string) {
	ot := subMap(raw, "outcomeTokens")
	if ot == nil {
		return "", ""
	}
	return firstOf(ot, "yes"), firstOf(ot, "no")
}

func firstOf(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := stringKey(obj, k); ok {
			return v
		}
	}
	return ""
}
