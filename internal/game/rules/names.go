package rules

import "strings"

// accentFold maps the accented characters appearing in Spanish game content
// to their ASCII base letters. The content character set is closed, so a
// fixed table is enough; anything outside it is handled by Slug's
// non-alphanumeric replacement.
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
	'Á': 'A', 'É': 'E', 'Í': 'I', 'Ó': 'O', 'Ú': 'U', 'Ü': 'U', 'Ñ': 'N',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
	'â': 'a', 'ê': 'e', 'î': 'i', 'ô': 'o', 'û': 'u',
}

// StripAccents replaces accented characters with their base letters, leaving
// everything else untouched. Case is preserved.
func StripAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := accentFold[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slug normalizes a display name into a comparable identifier: accents are
// stripped, letters lowered, and every run of non-alphanumeric characters
// collapses into a single underscore.
//
// Postcondition: "Arco corto" yields "arco_corto", "Aliento ígneo" yields
// "aliento_igneo", "Espada larga +1" yields "espada_larga_1".
func Slug(s string) string {
	s = strings.ToLower(StripAccents(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
