package compiler

import (
	"fmt"
	"strings"
)

// gsym is one symbol of a production body: either a nonterminal reference
// (resolved against Grammar.productions) or a terminal, matched either by
// exact literal spelling ("+", "int", "{") or by one of a small set of
// lexical class names (identifier, integer-constant, floating-constant,
// character-constant) that name a Lexer token category rather than a
// single spelling.
type gsym struct {
	name     string
	terminal bool
}

// production is one alternative body for a non-terminal.
type production struct {
	head string
	body []gsym
}

// Grammar is a loaded rule table (spec.md §6): a set of named productions
// plus the non-terminal the parser driver starts from.
type Grammar struct {
	productions map[string][]*production
	start       string
}

var lexicalClasses = map[string]TokenType{
	"identifier":         IDENTIFIER,
	"integer-constant":   INT_CONST,
	"floating-constant":  FLOAT_CONST,
	"character-constant": CHAR_CONST,
}

// LoadGrammar parses the textual rule-table format of spec.md §6:
//
//	(section) non-terminal:
//		alternative one
//		alternative two sym opt
//
//	operator: one of
//		+ - * /
//
// Blank lines and "#"-prefixed comment lines are ignored. A symbol followed
// by the literal word "opt" on the same alternative is optional; an
// alternative with k optional symbols expands into every one of the 2^k
// combinations at load time, so the parser itself never special-cases opt.
func LoadGrammar(text string) (*Grammar, error) {
	type rawAlt struct {
		head string
		toks []string
		oneOf bool
	}

	var raws []rawAlt
	var curHead string
	var curOneOf bool

	lines := strings.Split(text, "\n")
	for lineNo, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if isHeaderLine(line) {
			head, oneOf, err := parseHeader(trimmed)
			if err != nil {
				return nil, fmt.Errorf("grammar line %d: %w", lineNo+1, err)
			}
			curHead, curOneOf = head, oneOf
			continue
		}
		if curHead == "" {
			return nil, fmt.Errorf("grammar line %d: alternative %q before any non-terminal header", lineNo+1, trimmed)
		}
		if curOneOf {
			for _, lit := range strings.Fields(trimmed) {
				raws = append(raws, rawAlt{head: curHead, toks: []string{lit}})
			}
			continue
		}
		raws = append(raws, rawAlt{head: curHead, toks: strings.Fields(trimmed)})
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("grammar has no productions")
	}

	g := &Grammar{productions: make(map[string][]*production), start: raws[0].head}
	// Pass 1: collect every head name so bodies can tell nonterminal from
	// terminal by membership.
	heads := make(map[string]bool)
	for _, r := range raws {
		heads[r.head] = true
	}

	// Pass 2: expand `opt` markers and classify symbols.
	for _, r := range raws {
		for _, body := range expandOpt(r.toks) {
			syms := make([]gsym, len(body))
			for i, tok := range body {
				syms[i] = gsym{name: tok, terminal: !heads[tok]}
			}
			g.productions[r.head] = append(g.productions[r.head], &production{head: r.head, body: syms})
		}
	}
	return g, nil
}

func isHeaderLine(line string) bool {
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return false
	}
	return strings.Contains(line, ":")
}

// parseHeader parses `name:`, `(section) name:`, or either form followed by
// `one of` / `none of`.
func parseHeader(trimmed string) (head string, oneOf bool, err error) {
	if idx := strings.Index(trimmed, ")"); strings.HasPrefix(trimmed, "(") && idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[idx+1:])
	}
	colon := strings.Index(trimmed, ":")
	if colon < 0 {
		return "", false, fmt.Errorf("malformed header %q", trimmed)
	}
	head = strings.TrimSpace(trimmed[:colon])
	rest := strings.TrimSpace(trimmed[colon+1:])
	if rest == "one of" || rest == "none of" {
		oneOf = true
	} else if rest != "" {
		return "", false, fmt.Errorf("malformed header %q", trimmed)
	}
	if head == "" {
		return "", false, fmt.Errorf("empty non-terminal name in header %q", trimmed)
	}
	return head, oneOf, nil
}

// expandOpt expands every `sym opt` marker in toks into the two bodies
// (with and without sym), combinatorially for multiple markers.
func expandOpt(toks []string) [][]string {
	base := make([]string, 0, len(toks))
	optIdx := make([]int, 0)
	for i := 0; i < len(toks); i++ {
		if i+1 < len(toks) && toks[i+1] == "opt" {
			optIdx = append(optIdx, len(base))
			base = append(base, toks[i])
			i++ // skip the "opt" marker
			continue
		}
		base = append(base, toks[i])
	}
	if len(optIdx) == 0 {
		return [][]string{base}
	}
	var out [][]string
	for mask := 0; mask < (1 << len(optIdx)); mask++ {
		drop := make(map[int]bool)
		for b, idx := range optIdx {
			if mask&(1<<b) == 0 {
				drop[idx] = true
			}
		}
		var body []string
		for i, t := range base {
			if drop[i] {
				continue
			}
			body = append(body, t)
		}
		out = append(out, body)
	}
	return out
}
