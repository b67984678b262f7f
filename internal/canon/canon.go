// Package canon normalizes function names as they cross from either compiler
// artifact (stack-usage listing, disassembly) into the function table, so
// that a GCC clone such as "foo.isra.0" and its plain "foo" resolve to one
// entry (spec §4.1, §4.2).
package canon

import "regexp"

// cloneSuffix matches GCC-style clone suffixes (".constprop.0", ".isra.1",
// ".part.3") and bare trailing ".<digits>".
var cloneSuffix = regexp.MustCompile(`\.(constprop|isra|part)\.\d+$|\.\d+$`)

// Name strips clone/qualifier suffixes from name, repeatedly, so
// "foo.isra.0.constprop.1" collapses to "foo".
func Name(name string) string {
	for {
		stripped := cloneSuffix.ReplaceAllString(name, "")
		if stripped == name {
			return name
		}
		name = stripped
	}
}
