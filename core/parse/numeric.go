package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var numberToken = regexp.MustCompile(`\d+(?:\.\d+)?`)

var (
	unitWords = map[string]float64{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
		"twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
		"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	}
	tensWords = map[string]float64{
		"twenty": 20, "thirty": 30, "forty": 40, "fourty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
)

// Numeric returns the first number found in text. A literal numeric token
// takes precedence over spoken number words.
func Numeric(text string) *float64 {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	if token := numberToken.FindString(normalized); token != "" {
		if v, err := strconv.ParseFloat(token, 64); err == nil {
			return &v
		}
	}

	return spokenNumber(normalized)
}

// spokenNumber reads the first run of number words, e.g. "forty five" or
// "a hundred and twenty".
func spokenNumber(normalized string) *float64 {
	type wordKind int
	const (
		none wordKind = iota
		unit
		tens
		hundred
	)

	words := strings.Fields(strings.ReplaceAll(normalized, "-", " "))
	var (
		total   float64
		started bool
		last    = none
	)
	for i, word := range words {
		if v, ok := unitWords[word]; ok {
			if last == unit || (last == tens && v >= 10) {
				break
			}
			total += v
			started, last = true, unit
			continue
		}
		if v, ok := tensWords[word]; ok {
			if last == unit || last == tens {
				break
			}
			total += v
			started, last = true, tens
			continue
		}
		if word == "hundred" {
			if last == hundred || total >= 100 {
				break
			}
			if total == 0 {
				total = 1
			}
			total *= 100
			started, last = true, hundred
			continue
		}
		if word == "and" && started && last == hundred {
			continue
		}
		if word == "a" && !started && i+1 < len(words) && words[i+1] == "hundred" {
			continue
		}
		if started {
			break
		}
	}

	if !started {
		return nil
	}
	return &total
}
