// Package meetingextract turns a transcript + summary into action-item
// drafts with confidence, effort, and due estimates. It offers an LLM-backed
// primary path and a deterministic regex/heuristic fallback, both producing
// the same Draft shape.
package meetingextract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hawlion/ai-planner/internal/domain"
)

// actionHints mirrors the bilingual Korean/English action-verb cue list the
// source meeting extractor uses to decide a line is actionable.
var actionHints = []string{
	"해야", "해주세요", "해줘", "작성", "정리", "검토", "전달", "공유", "준비",
	"fix", "review", "send", "prepare", "update",
}

var (
	assigneeRe    = regexp.MustCompile(`([A-Za-z가-힣0-9_]{2,20})(?:님|이|가|는|은|께서)`)
	effortHoursRe = regexp.MustCompile(`(\d+)\s*시간`)
	effortMinsRe  = regexp.MustCompile(`(\d+)\s*분`)
	leadingWordRe = regexp.MustCompile(`^(그러면|그럼|일단|음|어)\s*`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Draft is one extracted action-item candidate, before persistence.
type Draft struct {
	Title        string
	AssigneeName *string
	Due          *time.Time
	EffortMin    int
	Confidence   float64
	Rationale    string
}

// ExtractFallback runs the deterministic path: for each transcript line
// containing an action hint OR the substring "until/by" ("까지"), extract a
// title, guess an assignee, parse effort and due, and compute a hand-tuned
// confidence. Candidates are deduplicated by lowercased title within the
// meeting.
func ExtractFallback(meeting domain.Meeting, baseTime time.Time, parseDue func(hint string, base time.Time) *time.Time) []Draft {
	type line struct {
		speaker string
		text    string
	}
	lines := make([]line, 0, len(meeting.Transcript)+1)
	for _, u := range meeting.Transcript {
		speaker := u.Speaker
		if speaker == "" {
			speaker = "참석자"
		}
		text := strings.TrimSpace(u.Text)
		if text != "" {
			lines = append(lines, line{speaker: speaker, text: text})
		}
	}
	if meeting.Summary != "" {
		lines = append(lines, line{speaker: "summary", text: meeting.Summary})
	}

	seen := make(map[string]bool)
	var drafts []Draft
	for _, ln := range lines {
		lowered := strings.ToLower(ln.text)
		hasHint := containsAny(lowered, ln.text, actionHints)
		if !hasHint && !strings.Contains(ln.text, "까지") {
			continue
		}

		assigneeMatch := assigneeRe.FindStringSubmatch(ln.text)
		var assignee *string
		if len(assigneeMatch) > 1 {
			name := assigneeMatch[1]
			assignee = &name
		} else {
			speaker := ln.speaker
			assignee = &speaker
		}

		dueHint := extractDueHint(ln.text)
		var dueAt *time.Time
		if dueHint != "" && parseDue != nil {
			dueAt = parseDue(dueHint, baseTime)
		}

		effort := parseEffort(ln.text)
		title := extractTitle(ln.text)
		if len(title) < 6 {
			continue
		}

		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true

		confidence := computeConfidence(dueAt != nil, len(assigneeMatch) > 1, hasHint, effort)

		var reasons []string
		if hasHint {
			reasons = append(reasons, "action hint detected")
		}
		if dueAt != nil {
			reasons = append(reasons, "due expression detected")
		}
		if len(assigneeMatch) > 1 {
			reasons = append(reasons, "assignee expression detected")
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "plausible follow-up from meeting context")
		}

		drafts = append(drafts, Draft{
			Title:        title,
			AssigneeName: assignee,
			Due:          dueAt,
			EffortMin:    effort,
			Confidence:   confidence,
			Rationale:    strings.Join(reasons, ", "),
		})
	}
	return drafts
}

func containsAny(lowered, original string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(lowered, h) || strings.Contains(original, h) {
			return true
		}
	}
	return false
}

// dueKeywordRe matches the small set of date expressions the fallback
// extractor recognizes; parsing the matched text into an instant is left to
// the caller's parseDue (a relative-date parser configured with profile tz).
var dueKeywordRe = regexp.MustCompile(`(오늘|내일|모레|이번\s*주\s*[월화수목금토일]요일|다음\s*주\s*[월화수목금토일]요일|\d{1,2}/\d{1,2}|\d{4}-\d{2}-\d{2})`)

func extractDueHint(text string) string {
	m := dueKeywordRe.FindString(text)
	return m
}

func parseEffort(text string) int {
	if m := effortHoursRe.FindStringSubmatch(text); len(m) > 1 {
		hours, _ := strconv.Atoi(m[1])
		return domain.ClampEffort(hours * 60)
	}
	if m := effortMinsRe.FindStringSubmatch(text); len(m) > 1 {
		mins, _ := strconv.Atoi(m[1])
		return clampMinEffortLocal(mins)
	}
	return 60
}

// clampMinEffortLocal mirrors the source's tighter minute-only floor of 15
// while still respecting the shared domain ceiling.
func clampMinEffortLocal(mins int) int {
	if mins < 15 {
		mins = 15
	}
	return domain.ClampEffort(mins)
}

func extractTitle(line string) string {
	cleaned := whitespaceRe.ReplaceAllString(line, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = leadingWordRe.ReplaceAllString(cleaned, "")
	if len(cleaned) > 120 {
		cleaned = cleaned[:117] + "..."
	}
	return cleaned
}

func computeConfidence(hasDue, hasAssignee, hasHint bool, effortMinutes int) float64 {
	score := 0.35
	if hasHint {
		score += 0.25
	}
	if hasDue {
		score += 0.2
	}
	if hasAssignee {
		score += 0.15
	}
	if effortMinutes > 180 {
		score -= 0.1
	}
	if score < 0.2 {
		score = 0.2
	}
	if score > 0.95 {
		score = 0.95
	}
	return score
}
