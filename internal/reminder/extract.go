package reminder

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pattern selects which extraction rules apply to free chat text.
type Pattern string

const (
	// PatternKeyword gates on a trigger word anywhere in the text and then
	// requires a full h:mm am/pm clock token. No task text is captured.
	PatternKeyword Pattern = "keyword"
	// PatternPhrase matches explicit lead-in phrases ("remind me ...",
	// "set reminder ...") and captures the task between the phrase and the
	// time token. Minutes and the am/pm marker are optional.
	PatternPhrase Pattern = "phrase"
)

var keywordTriggers = []string{"remind", "reminder", "set", "alert"}

var clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)`)

var phraseRes = []*regexp.Regexp{
	regexp.MustCompile(`remind me (?:at |about )?(.+?)(?:at |@)(\d{1,2}):?(\d{2})?\s*(am|pm)?`),
	regexp.MustCompile(`reminder (?:at |for )?(.+?)(?:at |@)(\d{1,2}):?(\d{2})?\s*(am|pm)?`),
	regexp.MustCompile(`set reminder (.+?)(?:at |@)(\d{1,2}):?(\d{2})?\s*(am|pm)?`),
}

// Extractor turns chat text into reminders using fixed regular expressions.
// This is deliberately a narrow clock-time parser, not NLP: only 12-hour
// "h:mm am/pm" tokens (plus the phrase variant's relaxed forms) are
// understood, in the process-local timezone.
type Extractor struct {
	pattern Pattern
}

func NewExtractor(pattern Pattern) *Extractor {
	if pattern == "" {
		pattern = PatternKeyword
	}
	return &Extractor{pattern: pattern}
}

// Extract parses text into a reminder relative to now. The fire time lands on
// today's hh:mm and rolls forward one day when that instant is not strictly
// in the future. Out-of-range fields (hour beyond the meridiem range such as
// "13:00pm", or minutes above 59) are rejected rather than wrapped around.
func (e *Extractor) Extract(text string, now time.Time) (Reminder, bool) {
	lower := strings.ToLower(text)
	switch e.pattern {
	case PatternPhrase:
		return extractPhrase(lower, now)
	default:
		return extractKeyword(lower, now)
	}
}

func extractKeyword(lower string, now time.Time) (Reminder, bool) {
	triggered := false
	for _, word := range keywordTriggers {
		if strings.Contains(lower, word) {
			triggered = true
			break
		}
	}
	if !triggered {
		return Reminder{}, false
	}

	m := clockRe.FindStringSubmatch(lower)
	if m == nil {
		return Reminder{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	fireAt, ok := clockToTime(hour, minute, m[3], now)
	if !ok {
		return Reminder{}, false
	}
	return Reminder{FireAt: fireAt, CreatedAt: now}, true
}

func extractPhrase(lower string, now time.Time) (Reminder, bool) {
	for _, re := range phraseRes {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		task := strings.TrimSpace(m[1])
		hour, _ := strconv.Atoi(m[2])
		minute := 0
		if m[3] != "" {
			minute, _ = strconv.Atoi(m[3])
		}
		fireAt, ok := clockToTime(hour, minute, m[4], now)
		if !ok {
			return Reminder{}, false
		}
		return Reminder{Task: task, FireAt: fireAt, CreatedAt: now}, true
	}
	return Reminder{}, false
}

// clockToTime converts a parsed clock token to the next occurrence of that
// wall time. meridiem may be empty in the phrase variant, in which case the
// hour is taken as a 24-hour value.
func clockToTime(hour, minute int, meridiem string, now time.Time) (time.Time, bool) {
	if minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if meridiem == "pm" && hour != 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
	default:
		if hour < 0 || hour > 23 {
			return time.Time{}, false
		}
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}
