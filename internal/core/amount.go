// Amount normalization: converts informal numeric tokens (15k, 50rb,
// 2.5jt, 15.000) into an exact integer amount in the smallest currency
// unit.

package core

import (
	"strconv"
	"strings"
)

// Unit suffixes, matched case-insensitively. A bare number is literal.
var suffixMultipliers = map[string]int64{
	"k":  1_000,
	"rb": 1_000,
	"jt": 1_000_000,
}

const maxSafeAmount = int64(1)<<62 - 1

// ParseAmount converts a single token to smallest-unit value.
//
// Grammar: digits, optionally grouped by dots or commas, optionally with a
// fractional part, optionally followed by a unit suffix (k, rb, jt). A
// fractional part must resolve to a whole number of units after the suffix
// multiplier: "2.5jt" is 2_500_000, a bare "12.5" is malformed. Separators
// forming 3-digit groups in a suffixless token are treated as thousands
// grouping ("15.000" is 15_000).
//
//	ParseAmount("15k")   -> 15_000
//	ParseAmount("50rb")  -> 50_000
//	ParseAmount("2jt")   -> 2_000_000
//	ParseAmount("1233")  -> 1_233
func ParseAmount(token string) (int64, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return 0, &AmountParseError{Token: token, Reason: "empty token"}
	}

	num := t
	mult := int64(1)
	for s, m := range suffixMultipliers {
		if strings.HasSuffix(t, s) && len(t) > len(s) {
			num = t[:len(t)-len(s)]
			mult = m
			break
		}
	}
	if num == "" || !isDigitsAndSeparators(num) {
		return 0, &AmountParseError{Token: token, Reason: "not a numeric token"}
	}
	if !isDigit(num[0]) || !isDigit(num[len(num)-1]) {
		return 0, &AmountParseError{Token: token, Reason: "misplaced separator"}
	}

	groups := strings.FieldsFunc(num, func(r rune) bool { return r == '.' || r == ',' })
	switch {
	case len(groups) == 1:
		return scaleAmount(groups[0], "", mult, token)
	case mult == 1 && allThreeDigitGroups(groups[1:]):
		// Thousands grouping: 1.500.000 -> 1500000
		return scaleAmount(strings.Join(groups, ""), "", mult, token)
	case len(groups) == 2:
		return scaleAmount(groups[0], groups[1], mult, token)
	default:
		return 0, &AmountParseError{Token: token, Reason: "too many separators"}
	}
}

// FindAmount locates the first token in text matching the amount grammar
// and returns its value together with the matched substring. A detached
// suffix ("15 k") is folded into the preceding number. Returns
// ErrNotATransaction when no token parses.
func FindAmount(text string) (int64, string, error) {
	fields := strings.Fields(text)
	for i, f := range fields {
		if !containsDigit(f) {
			continue
		}
		// A detached suffix ("15 k") binds tighter than the bare number.
		if i+1 < len(fields) {
			if _, ok := suffixMultipliers[strings.ToLower(fields[i+1])]; ok {
				if v, err := ParseAmount(f + fields[i+1]); err == nil {
					return v, f + " " + fields[i+1], nil
				}
			}
		}
		if v, err := ParseAmount(f); err == nil {
			return v, f, nil
		}
	}
	return 0, "", ErrNotATransaction
}

func scaleAmount(intPart, fracPart string, mult int64, token string) (int64, error) {
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, &AmountParseError{Token: token, Reason: "integer part out of range"}
	}
	if iv > maxSafeAmount/mult {
		return 0, &AmountParseError{Token: token, Reason: "amount too large"}
	}
	value := iv * mult
	if fracPart != "" {
		fv, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, &AmountParseError{Token: token, Reason: "fraction out of range"}
		}
		scale := int64(1)
		for range fracPart {
			scale *= 10
		}
		if fv*mult%scale != 0 {
			return 0, &AmountParseError{Token: token, Reason: "fraction does not resolve to whole units"}
		}
		value += fv * mult / scale
	}
	if value <= 0 {
		return 0, &AmountParseError{Token: token, Reason: "amount must be positive"}
	}
	return value, nil
}

func allThreeDigitGroups(groups []string) bool {
	if len(groups) == 0 {
		return false
	}
	for _, g := range groups {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isDigitsAndSeparators(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) && s[i] != '.' && s[i] != ',' {
			return false
		}
	}
	return true
}

func containsDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			return true
		}
	}
	return false
}
