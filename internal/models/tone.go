// internal/models/tone.go
package models

import "strings"

// Tone selects the writing style sent to the generation collaborator.
type Tone string

const (
	ToneStandard Tone = "standard"
	ToneCasual   Tone = "casual"
	TonePolite   Tone = "polite"
	ToneFormal   Tone = "formal"
	ToneShort    Tone = "short"
)

// ParseTone maps s to a Tone, falling back to ToneStandard.
func ParseTone(s string) Tone {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case ToneStandard, ToneCasual, TonePolite, ToneFormal, ToneShort:
		return t
	default:
		return ToneStandard
	}
}

// ScriptLength selects the target speaking time of a script.
type ScriptLength string

const (
	LengthShort    ScriptLength = "short"
	LengthStandard ScriptLength = "standard"
	LengthLong     ScriptLength = "long"
)

// ParseScriptLength maps s to a ScriptLength, falling back to LengthStandard.
func ParseScriptLength(s string) ScriptLength {
	switch l := ScriptLength(strings.ToLower(strings.TrimSpace(s))); l {
	case LengthShort, LengthStandard, LengthLong:
		return l
	default:
		return LengthStandard
	}
}
