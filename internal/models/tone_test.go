package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		in   string
		want Tone
	}{
		{"standard", ToneStandard},
		{"Casual", ToneCasual},
		{" polite ", TonePolite},
		{"formal", ToneFormal},
		{"short", ToneShort},
		{"", ToneStandard},
		{"shouting", ToneStandard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTone(tt.in), tt.in)
	}
}

func TestParseScriptLength(t *testing.T) {
	assert.Equal(t, LengthShort, ParseScriptLength("short"))
	assert.Equal(t, LengthLong, ParseScriptLength("LONG"))
	assert.Equal(t, LengthStandard, ParseScriptLength("medium"))
	assert.Equal(t, LengthStandard, ParseScriptLength(""))
}

func TestDefaultProfileHasEditableRows(t *testing.T) {
	p := DefaultProfile()
	assert.Len(t, p.Achievements, AchievementSlots)
	assert.Len(t, p.CustomLinks, 1)
	assert.False(t, p.CustomLinks[0].Complete())
}
