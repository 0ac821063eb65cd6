// internal/services/script_assembler.go
package services

import (
	"strings"

	"github.com/Corphon/StandfmAI/internal/models"
)

// AssembleScript renders the flattened text of a script. It is the only
// producer of GeneratedScript.FullText.
func AssembleScript(script models.GeneratedScript) string {
	sections := make([]string, 0, len(script.Body))
	for _, section := range script.Body {
		points := make([]string, 0, len(section.Points))
		for _, p := range section.Points {
			points = append(points, "・"+p)
		}
		sections = append(sections, "■ "+section.Heading+"\n"+strings.Join(points, "\n"))
	}

	var sb strings.Builder
	sb.WriteString("【タイトル】")
	sb.WriteString(script.Title)
	sb.WriteString("\n\n【オープニング】\n")
	sb.WriteString(script.Opening)
	sb.WriteString("\n\n【本編】\n")
	sb.WriteString(strings.Join(sections, "\n\n"))
	sb.WriteString("\n\n【まとめ】\n")
	sb.WriteString(script.Conclusion)
	sb.WriteString("\n\n⏱️ 話す目安：")
	sb.WriteString(script.EstimatedTime)
	return sb.String()
}

// WithFullText returns script with FullText re-derived from its fields.
func WithFullText(script models.GeneratedScript) models.GeneratedScript {
	script.FullText = AssembleScript(script)
	return script
}
