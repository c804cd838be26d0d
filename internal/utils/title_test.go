package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type candidate struct {
	title string
	url   string
}

func (c candidate) MatchTitle() string { return c.title }
func (c candidate) MatchURL() string   { return c.url }

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Episode One", "Episode One"},
		{"double space", "Episode  One", "Episode One"},
		{"outer whitespace", "  Episode One \n", "Episode One"},
		{"tabs and newlines", "Episode\t\nOne", "Episode One"},
		{"ideographic space", "第1回　海外就職", "第1回 海外就職"},
		{"mixed widths", "第1回 　 海外就職", "第1回 海外就職"},
		{"empty", "", ""},
		{"only whitespace", " 　\t", ""},
		{"byte order mark", "\uFEFF第1回 海外就職", "第1回 海外就職"},
		{"byte order mark between words", "第1回\uFEFF海外就職", "第1回 海外就職"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Episode  One",
		"  leading and trailing  ",
		"　全角　スペース　",
		"a\tb\nc\rd",
		"#12 海外キャリアログ  (Part 1)",
	}

	for _, in := range inputs {
		once := NormalizeTitle(in)
		assert.Equal(t, once, NormalizeTitle(once), "input %q", in)
	}
}

func TestMatchTitle(t *testing.T) {
	tests := []struct {
		name       string
		candidates []candidate
		target     string
		wantURL    string
		wantOK     bool
	}{
		{
			name:   "no candidates",
			target: "anything",
		},
		{
			name:       "exact",
			candidates: []candidate{{"Episode One", "u1"}},
			target:     "Episode One",
			wantURL:    "u1",
			wantOK:     true,
		},
		{
			name:       "normalized",
			candidates: []candidate{{"Episode  One", "u1"}},
			target:     "Episode One",
			wantURL:    "u1",
			wantOK:     true,
		},
		{
			name:       "normalized ideographic space",
			candidates: []candidate{{"第1回　海外就職", "u1"}},
			target:     "第1回 海外就職",
			wantURL:    "u1",
			wantOK:     true,
		},
		{
			name:       "target contained in candidate",
			candidates: []candidate{{"My Great Talk (Part 1)", "u2"}},
			target:     "My Great Talk",
			wantURL:    "u2",
			wantOK:     true,
		},
		{
			name:       "candidate contained in target",
			candidates: []candidate{{"Great Talk", "u3"}},
			target:     "#5 Great Talk with guests",
			wantURL:    "u3",
			wantOK:     true,
		},
		{
			name: "exact wins over earlier substring",
			candidates: []candidate{
				{"Episode One (extended)", "substring"},
				{"Episode  One", "normalized"},
				{"Episode One", "exact"},
			},
			target:  "Episode One",
			wantURL: "exact",
			wantOK:  true,
		},
		{
			name: "normalized wins over earlier substring",
			candidates: []candidate{
				{"Episode One (extended)", "substring"},
				{"Episode  One", "normalized"},
			},
			target:  "Episode One",
			wantURL: "normalized",
			wantOK:  true,
		},
		{
			name: "first in list order wins within a tier",
			candidates: []candidate{
				{"Talk Part 1", "first"},
				{"Talk Part 2", "second"},
			},
			target:  "Talk",
			wantURL: "first",
			wantOK:  true,
		},
		{
			name: "empty titles are ignored",
			candidates: []candidate{
				{"", "empty"},
				{"Unrelated", "u4"},
			},
			target: "Episode One",
		},
		{
			name:       "blank target",
			candidates: []candidate{{"Episode One", "u1"}},
			target:     " 　",
		},
		{
			name: "blank titles are ignored",
			candidates: []candidate{
				{" ", "blank"},
				{"\uFEFF", "bom"},
			},
			target: "Episode One",
		},
		{
			name:       "normalized byte order mark",
			candidates: []candidate{{"\uFEFFEpisode One", "u7"}},
			target:     "Episode One",
			wantURL:    "u7",
			wantOK:     true,
		},
		{
			name:       "case sensitive",
			candidates: []candidate{{"episode one", "u5"}},
			target:     "Episode One",
		},
		{
			name:       "punctuation is not stripped",
			candidates: []candidate{{"Episode: One", "u6"}},
			target:     "Episode One",
		},
		{
			name: "no relation",
			candidates: []candidate{
				{"Alpha", "a"},
				{"Beta", "b"},
			},
			target: "Gamma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := MatchTitle(tt.candidates, tt.target)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestMatchTitleExactPrecedence(t *testing.T) {
	titles := []string{"A", "A B", "A  B", "B", "AB"}
	for _, target := range titles {
		var cands []candidate
		for _, title := range titles {
			cands = append(cands, candidate{title: title, url: "url:" + title})
		}
		url, ok := MatchTitle(cands, target)
		assert.True(t, ok)
		assert.Equal(t, "url:"+target, url, "target %q", target)
	}
}

func TestClosestTitle(t *testing.T) {
	cands := []candidate{
		{"海外就職の話", "a"},
		{"Working in Berlin", "b"},
		{"", "c"},
	}

	title, distance := ClosestTitle(cands, "Working in Berlín")
	assert.Equal(t, "Working in Berlin", title)
	assert.Equal(t, 1, distance)

	title, distance = ClosestTitle([]candidate{}, "x")
	assert.Equal(t, "", title)
	assert.Equal(t, -1, distance)
}
