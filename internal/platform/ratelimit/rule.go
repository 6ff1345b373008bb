package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rule allows Limit requests per fixed Window.
type Rule struct {
	Limit  int
	Window time.Duration
	// Per and Unit keep the spelling the rule was written with, for messages.
	Per  int
	Unit string
}

// String renders the rule for user facing messages, e.g. "2 per 1 second".
func (r Rule) String() string {
	return fmt.Sprintf("%d per %d %s", r.Limit, r.Per, r.Unit)
}

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRules parses a ";" separated list like "50/minute;2/second" or
// "100 per 5 minutes". Empty input yields no rules.
func ParseRules(raw string) ([]Rule, error) {
	var rules []Rule
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := parseRule(part)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseRule(s string) (Rule, error) {
	var limitStr, periodStr string
	if i := strings.Index(s, "/"); i >= 0 {
		limitStr, periodStr = s[:i], s[i+1:]
	} else if i := strings.Index(strings.ToLower(s), " per "); i >= 0 {
		limitStr, periodStr = s[:i], s[i+len(" per "):]
	} else {
		return Rule{}, fmt.Errorf("rate limit %q: expected <n>/<unit> or <n> per <unit>", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil || limit <= 0 {
		return Rule{}, fmt.Errorf("rate limit %q: invalid count", s)
	}

	fields := strings.Fields(strings.ToLower(periodStr))
	per := 1
	switch len(fields) {
	case 1:
	case 2:
		per, err = strconv.Atoi(fields[0])
		if err != nil || per <= 0 {
			return Rule{}, fmt.Errorf("rate limit %q: invalid period multiplier", s)
		}
		fields = fields[1:]
	default:
		return Rule{}, fmt.Errorf("rate limit %q: invalid period", s)
	}
	unit := strings.TrimSuffix(fields[0], "s")
	d, ok := units[unit]
	if !ok {
		return Rule{}, fmt.Errorf("rate limit %q: unknown unit %q", s, fields[0])
	}
	return Rule{Limit: limit, Window: time.Duration(per) * d, Per: per, Unit: unit}, nil
}
