package domain

// KanjiEntry is the learner's knowledge level for one kanji.
type KanjiEntry struct {
	Kanji rune
	Level int
}

// Word is a vocabulary record taken from a source card.
type Word struct {
	CardID   int64
	Word     string
	Def      string
	Furigana string
}

// DeckMapping names the fields of a deck that hold the headword,
// the definition and the reading.
type DeckMapping struct {
	Name       string `koanf:"name" yaml:"name" validate:"required"`
	Word       string `koanf:"word" yaml:"word" validate:"required"`
	Definition string `koanf:"definition" yaml:"definition" validate:"required"`
	Reading    string `koanf:"reading" yaml:"reading" validate:"required"`
}

// Fields returns the mapped field names in headword, definition, reading order.
func (m DeckMapping) Fields() []string {
	return []string{m.Word, m.Definition, m.Reading}
}
