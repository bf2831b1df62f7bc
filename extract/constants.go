package extract

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bindcraft/winmd-gen/cdecl"
	"github.com/bindcraft/winmd-gen/model"
)

// collectConstants evaluates object-like numeric macros into constant
// definitions. Macros are exempt from the traversal-scope filter: the
// preprocessor expands them into the translation unit no matter which
// file defined them.
func (w *walker) collectConstants(tu *cdecl.TranslationUnit, p *model.Partition) {
	for _, d := range tu.Decls {
		m, ok := d.(*cdecl.MacroDecl)
		if !ok || m.Name == "" {
			continue
		}
		if _, dup := w.seen["const "+m.Name]; dup {
			continue
		}
		if m.FunctionLike {
			w.skip("macro", m.Name, "function-like macros are unrepresentable")
			continue
		}
		value, ok := evalMacro(m.Tokens)
		if !ok {
			// Not a literal constant expression; nothing to emit.
			w.log.Debug("skipping non-literal macro", zap.String("name", m.Name))
			continue
		}
		w.seen["const "+m.Name] = struct{}{}
		p.Constants = append(p.Constants, model.ConstantDef{Name: m.Name, Value: value})
		w.log.Debug("extracted constant", zap.String("name", m.Name))
	}
}

// evalMacro evaluates a replacement list that is a single numeric
// literal, optionally negated. Anything else is not representable.
func evalMacro(tokens []string) (model.ConstValue, bool) {
	// Strip a stray trailing "#" some front-ends append to macro ranges.
	if n := len(tokens); n > 0 && tokens[n-1] == "#" {
		tokens = tokens[:n-1]
	}

	negated := false
	var lit string
	switch len(tokens) {
	case 1:
		lit = tokens[0]
	case 2:
		if tokens[0] != "-" {
			return model.ConstValue{}, false
		}
		negated = true
		lit = tokens[1]
	default:
		return model.ConstValue{}, false
	}

	if u, ok := parseIntLiteral(lit); ok {
		if negated {
			return model.SignedValue(-int64(u)), true
		}
		if u <= 1<<63-1 {
			return model.SignedValue(int64(u)), true
		}
		return model.UnsignedValue(u), true
	}

	if f, ok := parseFloatLiteral(lit); ok {
		if negated {
			f = -f
		}
		return model.FloatValue(f), true
	}

	return model.ConstValue{}, false
}

// parseIntLiteral parses a C integer literal: decimal, hex (0x), octal
// (leading 0), with optional U/L/LL/UL/ULL suffixes in either case.
func parseIntLiteral(s string) (uint64, bool) {
	s = strings.TrimRight(s, "uUlL")
	if s == "" {
		return 0, false
	}

	if rest, ok := cutPrefixFold(s, "0x"); ok {
		v, err := strconv.ParseUint(rest, 16, 64)
		return v, err == nil
	}
	if len(s) > 1 && s[0] == '0' {
		v, err := strconv.ParseUint(s[1:], 8, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

func parseFloatLiteral(s string) (float64, bool) {
	s = strings.TrimRight(s, "fFlL")
	if s == "" || !strings.ContainsAny(s, ".eE") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
