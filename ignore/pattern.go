package ignore

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Match is the outcome of testing a path against a Patterns set.
type Match int

// The three match outcomes.
const (
	MatchParent Match = iota
	MatchAllowed
	MatchIgnored
)

// ErrInvalidPattern reports a malformed pattern line.
var ErrInvalidPattern = errors.New("invalid ignore pattern")

// namePatternPart is one piece of a single path component's pattern.
type namePatternPart struct {
	kind namePartKind
	str  string // only meaningful when kind == namePartStr
}

type namePartKind int

const (
	namePartStr namePartKind = iota
	namePartAnyChar
	namePartAnyStr
)

// namePattern matches a single path component via backtracking.
type namePattern struct {
	parts []namePatternPart
}

func (np namePattern) matchStr(s string) bool {
	return matchNameParts(np.parts, s)
}

func matchNameParts(parts []namePatternPart, s string) bool {
	if len(parts) == 0 {
		return s == ""
	}

	head, rest := parts[0], parts[1:]

	switch head.kind {
	case namePartStr:
		if !strings.HasPrefix(s, head.str) {
			return false
		}

		return matchNameParts(rest, s[len(head.str):])
	case namePartAnyChar:
		if s == "" {
			return false
		}

		_, size := utf8.DecodeRuneInString(s)

		return matchNameParts(rest, s[size:])
	case namePartAnyStr:
		if len(rest) == 0 {
			return true
		}

		for left := s; ; {
			if matchNameParts(rest, left) {
				return true
			}

			if left == "" {
				return false
			}

			_, size := utf8.DecodeRuneInString(left)
			left = left[size:]
		}
	default:
		return false
	}
}

// patternPart is either a single-component namePattern or the "**"
// any-depth wildcard.
type patternPart struct {
	anyPath bool
	name    namePattern
}

// Pattern is one parsed line of an ignore file.
type Pattern struct {
	parts   []patternPart
	allow   bool
	cascade bool
	dirOnly bool
}

// Patterns is an ordered set of parsed ignore-file lines.
type Patterns struct {
	patterns []Pattern
}

// ParsePatterns parses the lines of an ignore file's text. '#'-prefixed
// lines are comments; blank lines are skipped.
func ParsePatterns(text string) (Patterns, error) {
	var out []Pattern

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		if line == "" {
			continue
		}

		p, err := parsePattern(line)
		if err != nil {
			return Patterns{}, err
		}

		out = append(out, p)
	}

	return Patterns{patterns: out}, nil
}

func parsePattern(line string) (Pattern, error) {
	allow := strings.HasPrefix(line, "!")
	if allow {
		line = line[1:]
	}

	cascade := !strings.HasPrefix(line, "/")
	if !cascade {
		line = line[1:]
	}

	dirOnly := strings.HasSuffix(line, "/")
	if dirOnly {
		line = line[:len(line)-1]
	}

	components := splitPatternComponents(line)

	parts := make([]patternPart, 0, len(components))

	for _, c := range components {
		if c == "**" {
			parts = append(parts, patternPart{anyPath: true})
			continue
		}

		np, err := parseNamePattern(c)
		if err != nil {
			return Pattern{}, err
		}

		parts = append(parts, patternPart{name: np})
	}

	if len(parts) >= 2 {
		cascade = false
	}

	return Pattern{parts: parts, allow: allow, cascade: cascade, dirOnly: dirOnly}, nil
}

// splitPatternComponents splits a pattern's remainder on unescaped '/',
// treating "\/" as a literal slash kept inside its component.
func splitPatternComponents(s string) []string {
	var (
		components []string
		cur        strings.Builder
	)

	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], `\/`) {
			cur.WriteByte('/')
			i += 2

			continue
		}

		if s[i] == '/' {
			components = append(components, cur.String())
			cur.Reset()
			i++

			continue
		}

		cur.WriteByte(s[i])
		i++
	}

	components = append(components, cur.String())

	return components
}

// parseNamePattern parses one path component into a namePattern, folding
// escape sequences and adjacent wildcard runs per the ignore-pattern
// syntax.
func parseNamePattern(s string) (namePattern, error) {
	var parts []namePatternPart

	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			parts = append(parts, namePatternPart{kind: namePartStr, str: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] == '\\' {
			if i+1 >= len(s) {
				return namePattern{}, errors.Wrapf(ErrInvalidPattern, "unterminated escape in %q", s)
			}

			switch s[i+1] {
			case '\\', '?', '*':
				literal.WriteByte(s[i+1])
				i += 2

				continue
			default:
				return namePattern{}, errors.Wrapf(ErrInvalidPattern, "invalid escape %q in %q", s[i:i+2], s)
			}
		}

		switch s[i] {
		case '?':
			flushLiteral()
			parts = append(parts, namePatternPart{kind: namePartAnyChar})
			i++
		case '*':
			flushLiteral()

			if len(parts) == 0 || parts[len(parts)-1].kind != namePartAnyStr {
				parts = append(parts, namePatternPart{kind: namePartAnyStr})
			}

			i++
		default:
			literal.WriteByte(s[i])
			i++
		}
	}

	flushLiteral()

	return namePattern{parts: parts}, nil
}

// Matches tests ep against every pattern in reverse definition order; the
// first match decides the outcome.
func (ps Patterns) Matches(ep EntryPath) Match {
	for i := len(ps.patterns) - 1; i >= 0; i-- {
		p := ps.patterns[i]

		if p.dirOnly && !ep.IsDir {
			continue
		}

		if patternMatches(p, ep.Parts) {
			if p.allow {
				return MatchAllowed
			}

			return MatchIgnored
		}
	}

	return MatchParent
}

func patternMatches(p Pattern, path []string) bool {
	if p.cascade {
		for i := 0; i <= len(path); i++ {
			if matchComponents(p.parts, path[i:]) {
				return true
			}
		}

		return false
	}

	return matchComponents(p.parts, path)
}

// matchComponents recursively matches a pattern's component list against
// a path's component list, backtracking through "**" wildcards.
func matchComponents(parts []patternPart, path []string) bool {
	if len(parts) == 0 {
		return len(path) == 0
	}

	head, rest := parts[0], parts[1:]

	if head.anyPath {
		for i := 0; i <= len(path); i++ {
			if matchComponents(rest, path[i:]) {
				return true
			}
		}

		return false
	}

	if len(path) == 0 {
		return false
	}

	if !head.name.matchStr(path[0]) {
		return false
	}

	return matchComponents(rest, path[1:])
}
