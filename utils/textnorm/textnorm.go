// Package textnorm prepares OCR output for fingerprinting and downstream
// extraction. Everything here is deterministic string work - no I/O, no
// model calls.
package textnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	pagePattern      = regexp.MustCompile(`(?i)\bpage\s+\d+\b`)
	dashedPagePattern = regexp.MustCompile(`(?m)^-\s*\d+\s*-$`)
	bracketedPagePattern = regexp.MustCompile(`(?m)^\[\d+\]$`)
	bareNumberLinePattern = regexp.MustCompile(`(?m)^\d+\s*$`)
	multiSpacePattern = regexp.MustCompile(` {2,}`)
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	lineEdgePattern   = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize lowercases OCR text, strips common page-number patterns and
// collapses whitespace while preserving question numbering and paragraph
// breaks.
func Normalize(rawText string) string {
	normalized := strings.ToLower(rawText)

	// Page number annotations: "page 1", "- 1 -", "[1]", bare number lines
	normalized = pagePattern.ReplaceAllString(normalized, "")
	normalized = dashedPagePattern.ReplaceAllString(normalized, "")
	normalized = bracketedPagePattern.ReplaceAllString(normalized, "")
	normalized = bareNumberLinePattern.ReplaceAllString(normalized, "")

	normalized = multiSpacePattern.ReplaceAllString(normalized, " ")
	normalized = multiNewlinePattern.ReplaceAllString(normalized, "\n\n")
	normalized = lineEdgePattern.ReplaceAllString(normalized, "")

	return strings.TrimSpace(normalized)
}

// Fingerprint computes the dedup key for already-normalized text: a
// SHA-256 hex digest over the text with all remaining whitespace removed.
// Two papers that differ only in whitespace or page numbering hash to the
// same value; any retained character difference changes the hash.
func Fingerprint(normalizedText string) string {
	stripped := whitespacePattern.ReplaceAllString(normalizedText, "")
	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:])
}

var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+\.`),
	regexp.MustCompile(`(?i)\bq\d+:`),
	regexp.MustCompile(`(?i)\bquestion\s+\d+`),
}

// HasQuestionNumbering reports whether text contains question numbering
// patterns like "1.", "Q1:" or "Question 1". Used as a cheap sanity check
// that OCR actually produced an exam paper.
func HasQuestionNumbering(text string) bool {
	for _, pattern := range questionPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
