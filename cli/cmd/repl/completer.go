package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/codeblock/manifest"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "show", "format", "undo", "reset",
	"list", "load", "edit", "clear", "quit",
}

// stepUsage is the operand syntax of each build-mode step.
var stepUsage = map[manifest.StepKind]string{
	manifest.StepAdd:       `add "format" [expr, ...]`,
	manifest.StepStatement: `statement "format" [expr, ...]`,
	manifest.StepBegin:     `begin "construct" [expr, ...]`,
	manifest.StepNext:      `next "construct" [expr, ...]`,
	manifest.StepEnd:       `end ["construct" [expr, ...]]`,
	manifest.StepIndent:    `indent [count]`,
	manifest.StepUnindent:  `unindent [count]`,
	manifest.StepEmbed:     `embed fragment-name`,
}

// stepNames returns the names of all step kinds.
func stepNames() []string {
	kinds := manifest.StepKinds()
	names := make([]string, len(kinds))

	for i, k := range kinds {
		names[i] = k.String()
	}

	return names
}

// exprBuiltinNames returns the sorted names of the expr-lang builtin
// functions.
func exprBuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtin.Index))
}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, quotes, the member-access dot, and
// expr-lang operator/punctuation characters. Hyphens are not boundaries
// because fragment names may contain them.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '"', '\'', '`',
		'(', ')', '[', ']',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Words are delimited by whitespace, dots, and
// expr-lang operator/punctuation characters.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	word = input[start:end]

	return word, start, end
}

// parentPath returns the dot-separated prefix path leading up to the current
// word, considering only the contiguous member-access chain. For input
// "add x, mung.pr" with the word "pr", the parent path is "mung".
// Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	prefix = strings.TrimRight(prefix, ".")

	if prefix == "" {
		return ""
	}

	// Walk backward from the end of the trimmed prefix. Collect characters
	// that are dots or valid identifier characters. Stop at the first
	// non-dot word boundary.
	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r == '.' {
			pos -= size

			continue
		}

		if isWordBoundary(r) {
			break
		}

		pos -= size
	}

	result := strings.TrimSpace(prefix[pos:end])
	if result == "" {
		return ""
	}

	return result
}

// childCandidates returns the names that are valid completions for the word
// after parent in build mode. The first word of a line completes to a step
// kind. An embed operand completes to a fragment name. Other top-level words
// complete to fragment names, vars, and builtins; words after a dot complete
// to the members of the value at parent.
func childCandidates(s *session, input, parent string, wordStart int) []string {
	head := strings.TrimSpace(input[:wordStart])

	switch {
	case head == "":
		return stepNames()

	case head == manifest.StepEmbed.String():
		return s.names()

	case parent == "":
		names := slices.Concat(
			s.names(),
			slices.Sorted(maps.Keys(s.man.Vars())),
			manifest.BuiltinKeys(),
			exprBuiltinNames(),
		)
		slices.Sort(names)

		return slices.Compact(names)
	}

	env := manifest.Builtins()
	maps.Copy(env, s.man.Vars())

	var v any = env

	for seg := range strings.SplitSeq(parent, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}

		v = m[seg]
	}

	if m, ok := v.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access) or as the
// operand of embed, it returns all candidates as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		candidates = childCandidates(m.session, input, parent, wordStart)

		if word == "" {
			browse := parent != "" ||
				strings.TrimSpace(input[:wordStart]) == manifest.StepEmbed.String()
			if !browse || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected)
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		// Check if adding this candidate would exceed width.
		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth

		// If this is the last candidate, no need to reserve ellipsis space.
		if i == len(matches)-1 {
			break
		}
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	// Add "()" suffix for functions (not applied to actual completion)
	if isFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction reports whether name refers to a callable builtin.
func isFunction(name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	if name == "env" || name == "fragment" {
		return true
	}

	if v, ok := manifest.Builtins()[name]; ok {
		return reflect.ValueOf(v).Kind() == reflect.Func
	}

	return false
}
