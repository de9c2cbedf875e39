package hwmod

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/rohdgo/rohderr"
	"github.com/sarchlab/rohdgo/wire"
)

// titleCaser normalizes a signal's display name before an emitter
// uniquifies it: locale-stable title-casing rather than a hand-rolled
// ASCII-only upper/lowercase flip.
var titleCaser = cases.Title(language.English)

// NormalizeDisplayName title-cases name ("SOUTH" -> "South") so two
// signals declared with different incoming casing ("clk" vs "CLK") collapse to
// one canonical spelling before naming collisions are checked.
func NormalizeDisplayName(name string) string {
	return titleCaser.String(name)
}

// isIdentifier reports whether name is safe to emit verbatim as a
// target-language identifier: starts with a letter or underscore,
// continues with letters, digits, or underscores.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// ReserveSignalNameChecked is ReserveSignalName with an added
// identifier-safety check: a reserved name must be a valid identifier
// for the target emitter, since emitters are forbidden from uniquifying
// it out of the way of a collision.
func (m *Mod) ReserveSignalNameChecked(sig *wire.Sig) error {
	if !isIdentifier(sig.Name()) {
		return rohderr.New(rohderr.KindDuplicateReservedName, "%q is not a valid identifier for a reserved signal name", sig.Name())
	}
	return m.ReserveSignalName(sig)
}
