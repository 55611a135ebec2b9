package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	specPattern = regexp.MustCompile(`^(?:([A-Za-z_][A-Za-z0-9_]*)\s*=\s*)?([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)$`)
	namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Parse reads a transform list written as
//
//	midpoint(high, low); sma(midpoint, 26); sma50=sma(close, 50)
//
// Entries are separated by semicolons or newlines. Arguments that parse
// as numbers are parameters and must follow the input columns.
func Parse(s string) (List, error) {
	var out List
	entries := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' })
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		spec, err := parseSpec(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func parseSpec(entry string) (Spec, error) {
	m := specPattern.FindStringSubmatch(entry)
	if m == nil {
		return Spec{}, fmt.Errorf("%q: %w", entry, ErrSyntax)
	}
	spec := Spec{Name: m[1], Indicator: m[2]}
	if strings.TrimSpace(m[3]) == "" {
		return spec, nil
	}
	for _, arg := range strings.Split(m[3], ",") {
		arg = strings.TrimSpace(arg)
		if f, err := strconv.ParseFloat(arg, 64); err == nil {
			spec.Params = append(spec.Params, f)
			continue
		}
		if !namePattern.MatchString(arg) {
			return Spec{}, fmt.Errorf("%q: bad argument %q: %w", entry, arg, ErrSyntax)
		}
		if len(spec.Params) > 0 {
			return Spec{}, fmt.Errorf("%q: column %q after parameters: %w", entry, arg, ErrSyntax)
		}
		spec.Inputs = append(spec.Inputs, arg)
	}
	return spec, nil
}
