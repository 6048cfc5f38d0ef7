package present

import "strings"

// wrapThreshold is the rune length above which a label without " & " is split.
const wrapThreshold = 18

// WrapLabel splits an axis label into display lines so long labels do not collide
// around the radial axis:
//   - a label containing " & " breaks right after the first "&";
//   - otherwise a label longer than 18 runes breaks at the last space at or
//     before its midpoint;
//   - otherwise the label is returned unbroken.
//
// It never returns zero lines.
func WrapLabel(label string) []string {
	if label == "" {
		return []string{""}
	}
	if i := strings.Index(label, " & "); i >= 0 {
		return []string{label[:i+2], label[i+3:]}
	}
	r := []rune(label)
	if len(r) <= wrapThreshold {
		return []string{label}
	}
	mid := len(r) / 2
	for i := mid; i > 0; i-- {
		if r[i] == ' ' {
			return []string{string(r[:i]), string(r[i+1:])}
		}
	}
	return []string{label}
}
