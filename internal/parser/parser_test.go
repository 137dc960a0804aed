package parser

import "testing"

func TestClean(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain word", input: "本", expected: "本"},
		{name: "Bold markup", input: "<b>本</b>屋", expected: "本屋"},
		{name: "Furigana brackets", input: "日本[にほん]", expected: "日本"},
		{name: "Sound reference", input: "本[sound:hon.mp3]", expected: "本"},
		{name: "Line breaks", input: "book<br>volume<br/>", expected: "book volume"},
		{name: "Entities", input: "rock &amp; roll", expected: "rock & roll"},
		{name: "Ruby markup", input: "<ruby>漢<rt>かん</rt></ruby><ruby>字<rp>(</rp><rt>じ</rt><rp>)</rp></ruby>", expected: "漢字"},
		{name: "Collapses whitespace", input: "  a \n  b  ", expected: "a b"},
		{name: "Unterminated tag is literal", input: "1 < 2", expected: "1 < 2"},
		{name: "Unterminated bracket is literal", input: "x [y", expected: "x [y"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.input); got != tc.expected {
				t.Errorf("Expected Clean to be '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestReading(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain kana", input: "ほん", expected: "ほん"},
		{name: "Single bracket", input: "日本[にほん]", expected: "にほん"},
		{name: "Consecutive brackets", input: "日本[にほん]語[ご]", expected: "にほんご"},
		{name: "Space separated okurigana", input: "お 茶[ちゃ]", expected: "おちゃ"},
		{name: "Trailing kana", input: " 食[た]べる", expected: "たべる"},
		{name: "Sound reference dropped", input: "ほん[sound:hon.mp3]", expected: "ほん"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Reading(tc.input); got != tc.expected {
				t.Errorf("Expected Reading to be '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}
