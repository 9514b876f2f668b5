// Package l10n provides the localization lookup consumed for user-visible
// strings written into event payloads (currently the prune placeholder
// caption). The hosting application supplies its own Localizer to plug in a
// full translation system; the default is a static English table.
package l10n

// Key names a localizable string.
type Key string

// Keys used by roomlog.
const (
	// KeyFileRemovedByPrune captions the placeholder attachment left behind
	// when prune redacts a file message.
	KeyFileRemovedByPrune Key = "File_removed_by_prune"
)

// Localizer resolves a key to a display string.
type Localizer interface {
	Lookup(key Key) string
}

// Func adapts a plain function to the Localizer interface.
type Func func(key Key) string

// Lookup implements Localizer.
func (f Func) Lookup(key Key) string { return f(key) }

var english = map[Key]string{
	KeyFileRemovedByPrune: "File removed by prune",
}

// Default returns the built-in English localizer. Unknown keys resolve to
// the key itself so missing translations stay visible.
func Default() Localizer {
	return Func(func(key Key) string {
		if s, ok := english[key]; ok {
			return s
		}

		return string(key)
	})
}
