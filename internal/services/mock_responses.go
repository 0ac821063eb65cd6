// internal/services/mock_responses.go
package services

import "github.com/Corphon/StandfmAI/internal/models"

// Canned payloads served when a collaborator is not configured.

func mockProcessResult() models.ProcessResult {
	return models.ProcessResult{
		Transcript: `これはサンプルの文字起こしテキストです。

今日は「音声配信の魅力」についてお話しします。音声配信は、いつでもどこでも録音できる手軽さが魅力です。

通勤中や家事をしながらでも聴けるので、リスナーさんにとっても便利なコンテンツですね。`,
		Summary: "音声配信の手軽さと、リスナーにとっての利便性について解説。いつでもどこでも録音・視聴できる点が魅力。",
		Titles: []string{
			"🎙️ 音声配信の魅力を徹底解説！始め方から継続のコツまで",
			"📻 なぜ今、音声配信なのか？3つのメリット",
			"🌟 音声配信で人生が変わった話",
		},
		Description: `【今日のテーマ】
音声配信の魅力について

【内容】
・いつでもどこでも録音できる手軽さ
・リスナーさんの「ながら聴き」に最適
・継続しやすいコンテンツ形式

【まとめ】
音声配信は、配信者にもリスナーにも優しいメディア。まずは気軽に始めてみましょう！

#standfm #音声配信 #ポッドキャスト`,
		XPost: `🎙️ 音声配信の魅力って？

✅ いつでもどこでも録音OK
✅ ながら聴きで効率◎
✅ 続けやすい！

音声は話すだけでコンテンツになる。
これってすごいことだと思うんです。

#standfm #音声配信`,
	}
}

func mockScript() models.GeneratedScript {
	return WithFullText(models.GeneratedScript{
		Title:   "今日の気づきと学び",
		Opening: "こんにちは！今日も聴いてくださりありがとうございます。\n今日は最近の気づきについて話してみようと思います。",
		Body: []models.ScriptSection{
			{
				Heading: "1. 最近感じたこと",
				Points: []string{
					"メモに書いた内容をここで展開します",
					"具体的なエピソードを交えて",
					"リスナーにも共感してもらえるように",
				},
			},
			{
				Heading: "2. そこから学んだこと",
				Points: []string{
					"感じたことから得た教訓",
					"今後どう活かしていくか",
					"リスナーへのメッセージ",
				},
			},
		},
		Conclusion:    "今日は最近の気づきについてお話ししました。\n皆さんも何か気づいたことがあれば、ぜひコメントで教えてくださいね。\nそれでは、また次回！",
		EstimatedTime: "10分",
	})
}
