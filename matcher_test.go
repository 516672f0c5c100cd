package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindKeyword(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     string
	}{
		{"whole word match", "need a delivery to Kyiv", []string{"delivery"}, "delivery"},
		{"case insensitive", "NEED A DELIVERY NOW", []string{"delivery"}, "delivery"},
		{"substring of longer word is not a match", "select category now", []string{"cat"}, ""},
		{"plural is a different word", "my deliveries arrived", []string{"delivery"}, ""},
		{"first keyword in list order wins", "moving and delivery services", []string{"delivery", "moving"}, "delivery"},
		{"bounded by punctuation", "delivery, please", []string{"delivery"}, "delivery"},
		{"at start of text", "delivery needed", []string{"delivery"}, "delivery"},
		{"at end of text", "I need delivery", []string{"delivery"}, "delivery"},
		{"multi word keyword", "looking for apartment renovation today", []string{"apartment renovation"}, "apartment renovation"},
		{"empty keyword list", "anything at all", nil, ""},
		{"empty text", "", []string{"delivery"}, ""},
		{"cyrillic word boundary", "шукаю вантажне перевезення терміново", []string{"перевезення"}, "перевезення"},
		{"cyrillic substring is not a match", "перевезенням займаюсь", []string{"перевезення"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindKeyword(tt.text, tt.keywords))
		})
	}
}

func TestHasMinusWord(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		minusWords []string
		want       bool
	}{
		{"plain substring", "cheap promo codes here", []string{"promo"}, true},
		{"embedded in longer word", "cryptocurrency trading", []string{"crypto"}, true},
		{"case insensitive", "Best CASINO in town", []string{"casino"}, true},
		{"phrase substring", "we buy usdt now cheap", []string{"buy usdt"}, true},
		{"no match", "honest question about plumbing", []string{"casino", "promo"}, false},
		{"empty list", "anything", nil, false},
		{"empty phrase ignored", "anything", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMinusWord(tt.text, tt.minusWords))
		})
	}
}

func TestCleanMinusWords(t *testing.T) {
	tests := []struct {
		name       string
		minusWords []string
		skipWords  []string
		keywords   []string
		want       []string
	}{
		{
			name:       "skip words removed from phrase",
			minusWords: []string{"buy usdt now"},
			skipWords:  []string{"buy", "now"},
			want:       []string{"usdt"},
		},
		{
			name:       "phrase that becomes empty is dropped",
			minusWords: []string{"the"},
			skipWords:  []string{"the"},
			want:       []string{},
		},
		{
			name:       "keywords removed too",
			minusWords: []string{"cheap delivery spam"},
			keywords:   []string{"delivery"},
			want:       []string{"cheap spam"},
		},
		{
			name:       "duplicates collapse case-insensitively",
			minusWords: []string{"Casino", "casino", "CASINO bonus"},
			skipWords:  []string{"bonus"},
			want:       []string{"casino"},
		},
		{
			name:       "untouched phrases survive in order",
			minusWords: []string{"promo code", "casino"},
			want:       []string{"promo code", "casino"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMinusWords(tt.minusWords, tt.skipWords, tt.keywords))
		})
	}
}

func TestCleanMinusWordsDoesNotMutateInput(t *testing.T) {
	minus := []string{"buy usdt now"}
	skip := []string{"buy"}
	CleanMinusWords(minus, skip, nil)
	assert.Equal(t, []string{"buy usdt now"}, minus)
	assert.Equal(t, []string{"buy"}, skip)
}

func TestAppendUnique(t *testing.T) {
	list := []string{"alpha", "Beta"}

	list, added := appendUnique(list, "gamma")
	assert.True(t, added)
	assert.Equal(t, []string{"alpha", "Beta", "gamma"}, list)

	list, added = appendUnique(list, "BETA")
	assert.False(t, added)
	assert.Len(t, list, 3)
}

func TestRemoveTerms(t *testing.T) {
	list := []string{"alpha", "Beta", "gamma"}
	got := removeTerms(list, []string{"beta", "GAMMA"})
	assert.Equal(t, []string{"alpha"}, got)
}
