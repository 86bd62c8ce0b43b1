package block

// Sentinel introduces every directive in a format string.
const Sentinel = '$'

// Directive identifies a placeholder by the byte that follows [Sentinel].
type Directive byte

const (
	DirectiveLiteral  Directive = 'L'
	DirectiveName     Directive = 'N'
	DirectiveString   Directive = 'S'
	DirectiveType     Directive = 'T'
	DirectiveDollar   Directive = Sentinel
	DirectiveIndent   Directive = '>'
	DirectiveUnindent Directive = '<'
)

// Directives lists every recognized directive in declaration order.
func Directives() []Directive {
	return []Directive{
		DirectiveLiteral,
		DirectiveName,
		DirectiveString,
		DirectiveType,
		DirectiveDollar,
		DirectiveIndent,
		DirectiveUnindent,
	}
}

// ParseDirective reports the directive selected by c, the byte following a
// sentinel.
func ParseDirective(c byte) (Directive, bool) {
	switch d := Directive(c); d {
	case DirectiveLiteral, DirectiveName, DirectiveString, DirectiveType,
		DirectiveDollar, DirectiveIndent, DirectiveUnindent:
		return d, true
	default:
		return 0, false
	}
}

// ConsumesArg reports whether d is bound to an argument.
func (d Directive) ConsumesArg() bool {
	switch d {
	case DirectiveLiteral, DirectiveName, DirectiveString, DirectiveType:
		return true
	default:
		return false
	}
}

// Token returns the two-byte format token for d, e.g. "$L".
func (d Directive) Token() string {
	return string([]byte{Sentinel, byte(d)})
}

// String returns the lowercase name of d.
func (d Directive) String() string {
	switch d {
	case DirectiveLiteral:
		return "literal"
	case DirectiveName:
		return "name"
	case DirectiveString:
		return "string"
	case DirectiveType:
		return "type"
	case DirectiveDollar:
		return "dollar"
	case DirectiveIndent:
		return "indent"
	case DirectiveUnindent:
		return "unindent"
	default:
		return "unknown"
	}
}

// Part is a single format part: either a run of literal text containing no
// sentinel, or exactly one directive token.
type Part string

// Directive returns the directive p holds, if any.
func (p Part) Directive() (Directive, bool) {
	if len(p) != 2 || p[0] != Sentinel {
		return 0, false
	}

	return ParseDirective(p[1])
}

// IsDirective reports whether p is a directive token.
func (p Part) IsDirective() bool {
	_, ok := p.Directive()

	return ok
}

// ConsumesArg reports whether p is a directive bound to an argument.
func (p Part) ConsumesArg() bool {
	d, ok := p.Directive()

	return ok && d.ConsumesArg()
}

// Predefined parts used by the indentation helpers.
const (
	partIndent   Part = "$>"
	partUnindent Part = "$<"
)
