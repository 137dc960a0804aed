// Package parser turns raw flashcard field values into plain text.
//
// Field values coming from the card service carry HTML markup,
// "[sound:file.mp3]" audio references and the bracket furigana notation
// "日本[にほん]". Clean keeps the visible headword text, Reading keeps the
// kana reading.
package parser

import (
	"html"
	"strings"
)

const soundPrefix = "sound:"

type state int

const (
	seeking state = iota
	readingTag
	readingBracket
)

// Clean returns the visible text of a field value with markup, audio
// references and furigana brackets removed.
func Clean(value string) string {
	return strings.Join(strings.Fields(render(value, false)), " ")
}

// Reading returns the field value with every furigana bracket substituted
// for the text it annotates. Spaces used as furigana separators are dropped.
func Reading(value string) string {
	return strings.Join(strings.Fields(render(value, true)), "")
}

func render(value string, substitute bool) string {
	var out []rune
	var block []rune
	segmentStart := 0
	skipText := 0
	currentState := seeking

	for _, r := range value {
		switch currentState {
		case readingTag:
			if r != '>' {
				block = append(block, r)
				continue
			}
			name, closing := tagName(string(block))
			switch {
			case (name == "rt" || name == "rp") && !closing:
				skipText++
			case (name == "rt" || name == "rp") && closing && skipText > 0:
				skipText--
			case name == "br" || name == "div" || name == "p":
				out = append(out, ' ')
				segmentStart = len(out)
			}
			block = nil
			currentState = seeking

		case readingBracket:
			if r != ']' {
				block = append(block, r)
				continue
			}
			content := string(block)
			if !strings.HasPrefix(content, soundPrefix) && substitute {
				out = append(out[:segmentStart], []rune(content)...)
			}
			segmentStart = len(out)
			block = nil
			currentState = seeking

		default:
			switch {
			case r == '<':
				currentState = readingTag
			case r == '[':
				currentState = readingBracket
			case skipText > 0:
			case r == ' ' || r == '\n' || r == '\t':
				out = append(out, ' ')
				segmentStart = len(out)
			default:
				out = append(out, r)
			}
		}
	}

	// An unterminated tag or bracket is literal text.
	if currentState == readingTag {
		out = append(out, '<')
		out = append(out, block...)
	} else if currentState == readingBracket {
		out = append(out, '[')
		out = append(out, block...)
	}

	return html.UnescapeString(string(out))
}

func tagName(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	closing := strings.HasPrefix(tag, "/")
	tag = strings.TrimPrefix(tag, "/")
	tag = strings.TrimSuffix(tag, "/")
	if i := strings.IndexAny(tag, " \t\n"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag), closing
}
