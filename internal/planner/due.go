package planner

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var weekdayKo = map[string]time.Weekday{
	"월요일": time.Monday, "화요일": time.Tuesday, "수요일": time.Wednesday,
	"목요일": time.Thursday, "금요일": time.Friday, "토요일": time.Saturday, "일요일": time.Sunday,
	"월": time.Monday, "화": time.Tuesday, "수": time.Wednesday,
	"목": time.Thursday, "금": time.Friday, "토": time.Saturday, "일": time.Sunday,
}

var weekdayTokensByLenDesc = []string{
	"월요일", "화요일", "수요일", "목요일", "금요일", "토요일", "일요일",
	"월", "화", "수", "목", "금", "토", "일",
}

var hmRe = regexp.MustCompile(`(\d{1,2})\s*시(?:\s*(\d{1,2})\s*분)?`)

// ParseDue resolves a due date from an explicit value plus free-form
// fallback text, preferring a Korean relative-date hint ("내일 오후 5시")
// over generic parsing, matching the assistant's two-pass precedence.
func ParseDue(value, fallbackText string, loc *time.Location, now time.Time) (time.Time, bool) {
	if due, ok := parseKoreanHint(fallbackText, loc, now); ok {
		return due, true
	}
	if strings.TrimSpace(value) != "" {
		if due, ok := parseGeneral(value, loc); ok {
			return due, true
		}
	}
	return parseGeneral(fallbackText, loc)
}

func parseGeneral(text string, loc *time.Location) (time.Time, bool) {
	t, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseKoreanHint(text string, loc *time.Location, now time.Time) (time.Time, bool) {
	lowered := strings.ToLower(text)
	dayOffset := -1
	switch {
	case strings.Contains(text, "내일") || strings.Contains(lowered, "tomorrow"):
		dayOffset = 1
	case strings.Contains(text, "모레"):
		dayOffset = 2
	case strings.Contains(text, "오늘") || strings.Contains(lowered, "today"):
		dayOffset = 0
	}

	var weekdayMatch time.Weekday = -1
	for _, tok := range weekdayTokensByLenDesc {
		if strings.Contains(text, tok) {
			weekdayMatch = weekdayKo[tok]
			break
		}
	}

	hour, minute := 9, 0
	if m := hmRe.FindStringSubmatch(text); m != nil {
		hour = atoiSafe(m[1])
		if m[2] != "" {
			minute = atoiSafe(m[2])
		}
	}
	if strings.Contains(text, "오후") && hour < 12 {
		hour += 12
	}
	if strings.Contains(text, "오전") && hour == 12 {
		hour = 0
	}
	if strings.Contains(text, "밤") && hour < 12 {
		hour += 12
	}

	if dayOffset >= 0 {
		target := now.AddDate(0, 0, dayOffset)
		return time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, loc), true
	}

	if weekdayMatch >= 0 {
		monday := now.AddDate(0, 0, -int((now.Weekday()+6)%7))
		weekOffset := 0
		if strings.Contains(text, "다음주") || strings.Contains(lowered, "next week") {
			weekOffset = 1
		}
		target := monday.AddDate(0, 0, int(weekdayMatch)+7*weekOffset)
		target = time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, loc)
		if target.Before(now) && weekOffset == 0 {
			target = target.AddDate(0, 0, 7)
		}
		return target, true
	}

	return time.Time{}, false
}
