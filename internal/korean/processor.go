// Package korean provides best-effort formatting heuristics for mixed
// Korean/English model output. It is a string formatter, not a parser:
// false positives on sentence-ending detection are expected.
package korean

import (
	"regexp"
	"strings"
)

// Language classifies the dominant script of a text.
type Language string

const (
	Korean  Language = "korean"
	English Language = "english"
	Mixed   Language = "mixed"
	Unknown Language = "unknown"
)

var (
	specialTokenRe = regexp.MustCompile(`<\|.*?\|>`)
	blankLinesRe   = regexp.MustCompile(`\n+`)
	multiSpaceRe   = regexp.MustCompile(` +`)

	spaceBeforePunctRe = regexp.MustCompile(` +([,.!?;:])`)
	punctNoSpaceRe     = regexp.MustCompile(`([,.!?;:])([가-힣a-zA-Z])`)
	spaceBeforeParenRe = regexp.MustCompile(` +\(`)
	spaceAfterParenRe  = regexp.MustCompile(`\) +`)

	hangulRe = regexp.MustCompile(`[가-힣]`)
	letterRe = regexp.MustCompile(`[가-힣a-zA-Z]`)
)

// 존댓말 어미: 응답이 이미 공손하게 끝났는지 판별하는 데 쓰인다.
var honorificEndings = []string{"습니다", "입니다", "드립니다", "어요", "아요", "에요"}

var questionEndings = []string{"까요", "나요", "어요", "습니까"}

var terminalEndings = []string{".", "!", "?", "습니다", "입니다", "어요", "아요", "에요"}

var interrogativeWords = []string{
	"무엇", "어떻게", "왜", "언제", "어디서", "누가",
	"what", "how", "why", "when", "where", "who",
}

// ContainsKorean reports whether text has at least one Hangul syllable
// (U+AC00..U+D7A3).
func ContainsKorean(text string) bool {
	for _, r := range text {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}

// DetectLanguage classifies text by its ratio of Hangul to total letters.
// Above 0.5 it is korean, above 0.1 mixed, otherwise english; text with no
// letters at all is unknown.
func DetectLanguage(text string) Language {
	korean := len(hangulRe.FindAllString(text, -1))
	total := len(letterRe.FindAllString(text, -1))

	if total == 0 {
		return Unknown
	}

	ratio := float64(korean) / float64(total)
	switch {
	case ratio > 0.5:
		return Korean
	case ratio > 0.1:
		return Mixed
	default:
		return English
	}
}

// PostProcess cleans up raw model output: strips leftover role-marker
// tokens, collapses whitespace, fixes spacing around punctuation and
// parentheses, and enforces a polite Korean sentence ending when needed.
func PostProcess(text string) string {
	if text == "" {
		return text
	}

	text = specialTokenRe.ReplaceAllString(text, "")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	text = fixSpacing(text)
	text = fixSentenceEndings(text)

	return text
}

// fixSpacing normalizes spacing around punctuation and parentheses.
func fixSpacing(text string) string {
	text = spaceBeforePunctRe.ReplaceAllString(text, "$1")
	text = punctNoSpaceRe.ReplaceAllString(text, "$1 $2")
	text = spaceBeforeParenRe.ReplaceAllString(text, " (")
	text = spaceAfterParenRe.ReplaceAllString(text, ") ")
	return text
}

// fixSentenceEndings appends a polite ending to Korean text that does not
// already terminate properly: a question ending when an interrogative word
// is present, a declarative honorific otherwise.
func fixSentenceEndings(text string) string {
	if text == "" || !ContainsKorean(text) {
		return text
	}
	if hasAnySuffix(text, terminalEndings) {
		return text
	}

	if containsInterrogative(text) {
		if !hasAnySuffix(text, questionEndings) {
			return text + "까요?"
		}
		return text
	}

	if !hasAnySuffix(text, honorificEndings) {
		return text + "습니다."
	}
	return text
}

func containsInterrogative(text string) bool {
	lowered := strings.ToLower(text)
	for _, word := range interrogativeWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

func hasAnySuffix(text string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(text, suffix) {
			return true
		}
	}
	return false
}

// FormatMessage prepares a message for display. Assistant replies in Korean
// additionally get the politeness treatment; user messages are left casual.
func FormatMessage(text string, isUser bool) string {
	if text == "" {
		return ""
	}

	formatted := PostProcess(text)
	if !isUser && DetectLanguage(formatted) == Korean {
		formatted = fixSentenceEndings(formatted)
	}
	return formatted
}
