// internal/services/description.go
package services

import (
	"strings"

	"github.com/Corphon/StandfmAI/internal/models"
)

const (
	channelHeader   = "▼このチャンネルでは"
	xLinkHeader     = "▪️X（旧Twitter）"
	customLinkMark  = "▪️"
	aiSummaryMarker = "【AI要約】"
)

// BuildDescription prepends the profile header to aiSummary. Without a
// profile, or with a profile that has nothing to show, aiSummary is returned
// unchanged.
func BuildDescription(aiSummary string, profile *models.Profile) string {
	if profile == nil {
		return aiSummary
	}

	var lines []string
	if profile.ChannelDescription != "" {
		lines = append(lines, channelHeader, profile.ChannelDescription, "")
	}
	if profile.XLink != "" {
		lines = append(lines, xLinkHeader, profile.XLink, "")
	}
	for _, link := range profile.CustomLinks {
		if link.Complete() {
			lines = append(lines, customLinkMark+link.Name, link.URL, "")
		}
	}

	if len(lines) == 0 {
		return aiSummary
	}
	lines = append(lines, aiSummaryMarker, aiSummary)
	return strings.Join(lines, "\n")
}
