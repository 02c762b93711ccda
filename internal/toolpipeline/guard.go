package toolpipeline

import (
	"regexp"
	"strings"
)

// DefaultMaxToolResultSize bounds tool message content before it is
// appended to session history, preventing memory and transcript bloat
// from a single oversized tool response.
const DefaultMaxToolResultSize = 64 * 1024

// builtinSecretPatterns matches common credential shapes that a tool
// result should never carry into the transcript or logs.
var builtinSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[\w-]{20,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[\w\-.]+`),
	regexp.MustCompile(`(?i)(aws|amazon).*?(key|secret|token)\s*[:=]\s*['"]?[\w/+=]{20,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|secret|token)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
}

// ResultGuard redacts and truncates a tool result's serialized content
// before it becomes a tool message (spec §4.3 step 8). Applied after
// result classification, ahead of the scratchpad summary.
type ResultGuard struct {
	Enabled        bool
	MaxChars       int
	Denylist       []string // tool names whose output is fully redacted
	RedactPatterns []string // extra regexes beyond builtinSecretPatterns
	RedactionText  string
	TruncateSuffix string
}

// DefaultResultGuard enables secret redaction and the 64KB size cap with
// no tool-name denylist.
func DefaultResultGuard() ResultGuard {
	return ResultGuard{Enabled: true, MaxChars: DefaultMaxToolResultSize}
}

func (g ResultGuard) Apply(toolName, content string) string {
	if !g.Enabled {
		return content
	}

	redaction := strings.TrimSpace(g.RedactionText)
	if redaction == "" {
		redaction = "[REDACTED]"
	}
	suffix := strings.TrimSpace(g.TruncateSuffix)
	if suffix == "" {
		suffix = "...[truncated]"
	}

	for _, name := range g.Denylist {
		if strings.EqualFold(name, toolName) {
			return redaction
		}
	}

	for _, re := range builtinSecretPatterns {
		content = re.ReplaceAllString(content, redaction)
	}
	for _, pattern := range g.RedactPatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		content = re.ReplaceAllString(content, redaction)
	}

	max := g.MaxChars
	if max <= 0 {
		max = DefaultMaxToolResultSize
	}
	if len(content) > max {
		content = content[:max] + suffix
	}
	return content
}

// DetectSecrets reports which builtin secret patterns matched content, for
// logging or alerting on potential exposure.
func DetectSecrets(content string) []string {
	if content == "" {
		return nil
	}
	names := []string{"api_key", "bearer_token", "aws_key", "generic_secret", "private_key"}
	var matches []string
	for i, re := range builtinSecretPatterns {
		if re.MatchString(content) {
			matches = append(matches, names[i])
		}
	}
	return matches
}
