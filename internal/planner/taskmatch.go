package planner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hawlion/ai-planner/internal/domain"
)

var nonAlnumHangulRe = regexp.MustCompile(`[^0-9a-zA-Z가-힣]+`)

// NormalizeText lowercases and strips everything but alphanumerics and
// hangul, so keyword matching is resilient to spacing/punctuation noise.
func NormalizeText(value string) string {
	return nonAlnumHangulRe.ReplaceAllString(strings.ToLower(value), "")
}

// TaskMatchScore rates how well keyword identifies task, combining exact
// title equality, substring containment, and token overlap.
func TaskMatchScore(task domain.Task, keyword string) float64 {
	raw := strings.ToLower(task.Title + " " + task.Description)
	keywordRaw := strings.ToLower(keyword)
	keywordNorm := NormalizeText(keyword)
	textNorm := NormalizeText(raw)
	titleNorm := NormalizeText(task.Title)

	var score float64
	if keywordNorm != "" && keywordNorm == titleNorm {
		score += 150.0
	}
	if keywordRaw != "" && strings.Contains(raw, keywordRaw) {
		score += 90.0
	}
	if keywordNorm != "" && strings.Contains(titleNorm, keywordNorm) {
		score += 100.0
	} else if keywordNorm != "" && strings.Contains(textNorm, keywordNorm) {
		score += 80.0
	}

	var keyTokens []string
	for _, tok := range strings.Fields(keywordRaw) {
		if len([]rune(tok)) >= 2 {
			keyTokens = append(keyTokens, tok)
		}
	}
	if len(keyTokens) > 0 {
		hit := 0
		titleLower := strings.ToLower(task.Title)
		for _, tok := range keyTokens {
			if strings.Contains(titleLower, tok) {
				hit++
			}
		}
		ratio := float64(hit) / float64(len(keyTokens))
		score += ratio * 40.0
		if len(keyTokens) >= 2 && ratio == 1.0 {
			score += 35.0
		}
	}
	return score
}

// matchThreshold is the minimum fuzzy score accepted when no exact/strict
// substring match exists.
const matchThreshold = 45.0

// FindTask picks the best task matching keyword among candidates (already
// filtered to the caller's desired statuses and ordered newest-updated
// first). allowLatestFallback lets an empty/generic keyword resolve to the
// most recently touched task instead of failing outright.
func FindTask(candidates []domain.Task, keyword string, allowLatestFallback bool) *domain.Task {
	if len(candidates) == 0 {
		return nil
	}

	key := strings.TrimSpace(keyword)
	if key == "" {
		if allowLatestFallback {
			return &candidates[0]
		}
		return nil
	}
	if IsGenericKeyword(key) {
		if allowLatestFallback {
			return &candidates[0]
		}
		return nil
	}

	keyTokens := strings.Fields(key)
	allowStrict := (len(keyTokens) >= 2 || len([]rune(NormalizeText(key))) >= 6) && !IsGenericKeyword(key)
	if allowStrict {
		for i := range candidates {
			t := &candidates[i]
			if strings.Contains(t.Title, key) || strings.Contains(t.Description, key) {
				return t
			}
		}
	}

	type scored struct {
		task  *domain.Task
		score float64
	}
	var ranked []scored
	for i := range candidates {
		ranked = append(ranked, scored{&candidates[i], TaskMatchScore(candidates[i], key)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > 0 && ranked[0].score >= matchThreshold {
		return ranked[0].task
	}
	return nil
}
