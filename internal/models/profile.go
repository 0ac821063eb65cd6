// internal/models/profile.go
package models

// AchievementSlots is the fixed number of achievement lines on a profile.
const AchievementSlots = 3

// CustomLink is a named link rendered into the show-notes header.
type CustomLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Complete reports whether both name and URL are set.
func (l CustomLink) Complete() bool {
	return l.Name != "" && l.URL != ""
}

// Profile is the creator's channel information.
type Profile struct {
	Achievements       []string     `json:"achievements"`
	TargetAudience     string       `json:"targetAudience"`
	ChannelDescription string       `json:"channelDescription"`
	XLink              string       `json:"xLink"`
	CustomLinks        []CustomLink `json:"customLinks"`
}

// DefaultProfile returns an empty profile with its editable rows in place.
func DefaultProfile() *Profile {
	return &Profile{
		Achievements: make([]string, AchievementSlots),
		CustomLinks:  []CustomLink{{}},
	}
}
