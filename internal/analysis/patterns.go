package analysis

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/scout/internal/types"
)

// DefaultMaxLineLength is the line length above which a long-line issue is
// reported.
const DefaultMaxLineLength = 200

// Rule is one line-level pattern.
type Rule struct {
	Name     string
	Severity types.Severity
	Message  string
	Pattern  *regexp.Regexp
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "todo-marker",
			Severity: types.SeverityLow,
			Message:  "unresolved work marker",
			Pattern:  regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`),
		},
		{
			Name:     "debug-output",
			Severity: types.SeverityLow,
			Message:  "debug output left in code",
			Pattern:  regexp.MustCompile(`\bconsole\.(log|debug)\(|\bdebugger;|\bSystem\.out\.println\(|\bvar_dump\(|^\s*pp?rint\(`),
		},
		{
			Name:     "hardcoded-credential",
			Severity: types.SeverityHigh,
			Message:  "possible hard-coded credential",
			Pattern: regexp.MustCompile(`(?i)(api[_-]?key|secret|password|passwd|token)\s*[:=]\s*["'][^"'\s]{8,}["']` +
				`|(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["'][A-Za-z0-9/+=]{40}["']`),
		},
		{
			Name:     "private-key",
			Severity: types.SeverityHigh,
			Message:  "embedded private key",
			Pattern:  regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`),
		},
		{
			Name:     "empty-catch",
			Severity: types.SeverityMedium,
			Message:  "error swallowed by an empty handler",
			Pattern:  regexp.MustCompile(`catch\s*(\([^)]*\))?\s*\{\s*\}|^\s*except[^:]*:\s*pass\b`),
		},
	}
}

// PatternAnalyzer matches line-level rules against file content. It holds
// no mutable state and is safe for concurrent use.
type PatternAnalyzer struct {
	rules         []Rule
	maxLineLength int
}

// NewPatternAnalyzer creates an analyzer over DefaultRules.
func NewPatternAnalyzer() *PatternAnalyzer {
	return NewPatternAnalyzerWithRules(DefaultRules(), DefaultMaxLineLength)
}

// NewPatternAnalyzerWithRules creates an analyzer over rules. A non-positive
// maxLineLength disables the long-line check.
func NewPatternAnalyzerWithRules(rules []Rule, maxLineLength int) *PatternAnalyzer {
	return &PatternAnalyzer{rules: rules, maxLineLength: maxLineLength}
}

// Analyze implements Analyzer.
func (a *PatternAnalyzer) Analyze(ctx context.Context, content []byte, path string) ([]types.Issue, error) {
	var issues []types.Issue

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	line := 0
	for scanner.Scan() {
		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := scanner.Text()

		for _, rule := range a.rules {
			if rule.Pattern.MatchString(text) {
				issues = append(issues, newIssue(path, line, rule.Name, rule.Severity, rule.Message, text))
			}
		}
		if a.maxLineLength > 0 && len(text) > a.maxLineLength {
			issues = append(issues, newIssue(path, line, "long-line", types.SeverityLow,
				fmt.Sprintf("line is %d characters (limit %d)", len(text), a.maxLineLength), text))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return issues, nil
}

func newIssue(path string, line int, rule string, sev types.Severity, msg, text string) types.Issue {
	return types.Issue{
		Fingerprint: Fingerprint(rule, path, text),
		Path:        path,
		Line:        line,
		Severity:    sev,
		Rule:        rule,
		Message:     msg,
	}
}

// Fingerprint identifies an issue by rule, file and the trimmed line text,
// so it survives the line moving within the file.
func Fingerprint(rule, path, text string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(rule)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(path)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strings.TrimSpace(text))
	return d.Sum64()
}
