// internal/services/prompts.go
package services

import (
	"fmt"
	"strings"

	"github.com/Corphon/StandfmAI/internal/models"
)

var contentToneInstructions = map[models.Tone]string{
	models.ToneStandard: "標準的なトーンで、わかりやすく親しみやすい文章にしてください。",
	models.ToneCasual:   "カジュアルで親しみやすいトーンで、絵文字を多めに使ってください。",
	models.ToneFormal:   "丁寧で礼儀正しいトーンで、敬語を使ってください。",
	models.ToneShort:    "簡潔で短い文章にしてください。要点のみを伝えてください。",
}

var scriptToneInstructions = map[models.Tone]string{
	models.ToneStandard: "標準的なトーンで、わかりやすく親しみやすい文章にしてください。",
	models.ToneCasual:   "カジュアルで親しみやすいトーンで、絵文字を使っても良いです。",
	models.TonePolite:   "丁寧で礼儀正しいトーンで、敬語を使ってください。",
}

var lengthInstructions = map[models.ScriptLength]string{
	models.LengthShort:    "5分程度で話せる短めの台本にしてください。要点を絞って簡潔に。",
	models.LengthStandard: "10分程度で話せる標準的な長さの台本にしてください。",
	models.LengthLong:     "15分程度で話せる長めの台本にしてください。詳しく説明してください。",
}

// ContentToneInstruction returns the style line for content generation.
func ContentToneInstruction(tone models.Tone) string {
	if s, ok := contentToneInstructions[tone]; ok {
		return s
	}
	if tone == models.TonePolite {
		return contentToneInstructions[models.ToneFormal]
	}
	return contentToneInstructions[models.ToneStandard]
}

// ScriptToneInstruction returns the style line for script generation.
func ScriptToneInstruction(tone models.Tone) string {
	if s, ok := scriptToneInstructions[tone]; ok {
		return s
	}
	if tone == models.ToneFormal {
		return scriptToneInstructions[models.TonePolite]
	}
	return scriptToneInstructions[models.ToneStandard]
}

// LengthInstruction returns the duration line for script generation.
func LengthInstruction(length models.ScriptLength) string {
	if s, ok := lengthInstructions[length]; ok {
		return s
	}
	return lengthInstructions[models.LengthStandard]
}

const contentPromptTemplate = `あなたはstand.fmの配信者をサポートするアシスタントです。
以下の音声の文字起こしをもとに、配信用のテキストを作成してください。

## トーン
%s

## 文字起こし
%s

## 出力形式
以下のJSON形式のみで出力してください。
{
  "cleanedTranscript": "フィラーや言い淀みを取り除いた読みやすい文字起こし",
  "summary": "配信内容の要約（150文字程度）",
  "titles": ["タイトル案1", "タイトル案2", "タイトル案3"],
  "standfmDescription": "stand.fmの概要欄に載せる説明文（【テーマ】【内容】【まとめ】の構成、ハッシュタグ付き）",
  "xPost": "X（旧Twitter）投稿用の告知文（280文字以内、絵文字とハッシュタグ付き）"
}
titlesは必ず3つ、それぞれ先頭に絵文字を1つ付けてください。`

// BuildContentPrompt renders the prompt for a transcript.
func BuildContentPrompt(transcript string, tone models.Tone) string {
	return fmt.Sprintf(contentPromptTemplate, ContentToneInstruction(tone), transcript)
}

const scriptPromptTemplate = `あなたはstand.fmの配信者のための台本作成アシスタントです。
以下のメモをもとに、音声配信で話すための台本を作成してください。

## トーン
%s

## 長さ
%s

## メモ
%s%s

## 出力形式
以下のJSON形式のみで出力してください。
{
  "title": "配信タイトル",
  "opening": "オープニングで話す内容",
  "body": [
    {"heading": "見出し", "points": ["話すポイント1", "話すポイント2"]}
  ],
  "conclusion": "まとめで話す内容",
  "estimatedTime": "話す目安の時間（例: 10分）"
}
箇条書きは話すきっかけになるキーワード程度で構いません。
参考素材がある場合は、関連する内容を自然に組み込んでください。`

// BuildScriptPrompt renders the prompt for a memo and optional materials.
func BuildScriptPrompt(memo string, materials []string, tone models.Tone, length models.ScriptLength) string {
	return fmt.Sprintf(scriptPromptTemplate,
		ScriptToneInstruction(tone),
		LengthInstruction(length),
		memo,
		materialsSection(materials),
	)
}

func materialsSection(materials []string) string {
	var lines []string
	for _, m := range materials {
		if strings.TrimSpace(m) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", len(lines)+1, m))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n## 参考素材（過去の投稿から）:\n" + strings.Join(lines, "\n")
}
