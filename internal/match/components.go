package match

import "strings"

// Components splits a path into its segments. Both '/' and '\' separate
// segments, so paths recorded on either platform tokenize the same way.
// Empty segments and a leading drive letter ("C:") are dropped; casing is
// preserved.
//
//	Components("/foo/bar/")              -> [foo bar]
//	Components(`C:\Program Files\GIMP`)  -> [Program Files GIMP]
func Components(path string) []string {
	parts := strings.FieldsFunc(path, isSeparator)
	if len(parts) > 0 && isDrive(parts[0]) {
		parts = parts[1:]
	}
	return parts
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

func isDrive(s string) bool {
	if len(s) != 2 || s[1] != ':' {
		return false
	}
	c := s[0] | 0x20
	return c >= 'a' && c <= 'z'
}
