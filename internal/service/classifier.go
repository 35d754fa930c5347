package service

import (
	"regexp"
	"strings"
)

// Classifier lexically decides whether a raw SQL string is read-only. It is
// a deliberate approximation, not a parser: the input channel is already
// authenticated, and roles that could benefit from fooling it are the same
// roles that are denied write access outright.
type Classifier struct {
	blockComment *regexp.Regexp
	lineComment  *regexp.Regexp
	whitespace   *regexp.Regexp
	writeWords   *regexp.Regexp
	selectWord   *regexp.Regexp
}

func NewClassifier() *Classifier {
	return &Classifier{
		blockComment: regexp.MustCompile(`(?s)/\*.*?\*/`),
		lineComment:  regexp.MustCompile(`--[^\n]*`),
		whitespace:   regexp.MustCompile(`\s+`),
		writeWords:   regexp.MustCompile(`\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|REPLACE|GRANT|REVOKE)\b`),
		selectWord:   regexp.MustCompile(`\bSELECT\b`),
	}
}

// IsReadOnly reports whether sqlText is a read-only statement. Empty input
// and multi-statement batches fail closed.
func (c *Classifier) IsReadOnly(sqlText string) bool {
	normalized := c.normalize(sqlText)
	if normalized == "" {
		return false
	}

	// A semicolon followed by anything else means a second statement was
	// smuggled in. One trailing semicolon is fine.
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		if strings.TrimSpace(normalized[idx+1:]) != "" {
			return false
		}
		normalized = strings.TrimSpace(normalized[:idx])
	}

	// Write keywords anywhere reject the statement, even inside a CTE or
	// subquery after a leading SELECT-like token.
	if c.writeWords.MatchString(normalized) {
		return false
	}

	switch {
	case strings.HasPrefix(normalized, "SELECT "), normalized == "SELECT":
		return true
	case strings.HasPrefix(normalized, "WITH "):
		return c.selectWord.MatchString(normalized)
	case strings.HasPrefix(normalized, "EXPLAIN"),
		strings.HasPrefix(normalized, "DESCRIBE"),
		strings.HasPrefix(normalized, "DESC "),
		strings.HasPrefix(normalized, "SHOW"):
		return true
	}
	return false
}

// normalize strips comments, collapses whitespace and uppercases.
func (c *Classifier) normalize(sqlText string) string {
	s := c.blockComment.ReplaceAllString(sqlText, " ")
	s = c.lineComment.ReplaceAllString(s, " ")
	s = c.whitespace.ReplaceAllString(s, " ")
	return strings.ToUpper(strings.TrimSpace(s))
}
