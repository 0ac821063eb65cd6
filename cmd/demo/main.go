// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Corphon/StandfmAI/internal/app"
	"github.com/Corphon/StandfmAI/internal/config"
	"github.com/Corphon/StandfmAI/internal/di"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/services"
	"github.com/Corphon/StandfmAI/internal/utils"
)

const requestTimeout = 5 * time.Minute

var input = bufio.NewScanner(os.Stdin)

func main() {
	fmt.Println("🎙  stand.fm AI Console")
	fmt.Println("=================================")

	cfg, err := config.Load(os.Getenv("STANDFM_CONFIG"))
	if err != nil {
		log.Printf("❌ 設定の読み込みに失敗しました: %v", err)
		return
	}

	logFile := filepath.Join(cfg.Storage.DataDir, "logs", fmt.Sprintf("console_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		log.Printf("⚠️ ログファイルを開けません: %v", err)
	}

	if err := app.InitServices(cfg); err != nil {
		log.Printf("❌ サービスの初期化に失敗しました: %v", err)
		return
	}
	utils.GetLogger().Info("Console app starting", map[string]interface{}{"datadir": cfg.Storage.DataDir})

	for {
		showMenu()
		choice := prompt("番号を入力してください: ")

		switch choice {
		case "1", "audio":
			processAudio()
		case "2", "script":
			generateScript()
		case "3", "history":
			showHistory()
		case "4", "profile":
			showProfile()
		case "5", "export":
			exportScript()
		case "6", "status":
			showStatus(cfg)
		case "0", "quit", "exit":
			fmt.Println("おつかれさまでした 👋")
			return
		default:
			fmt.Println("無効な選択です")
		}
		fmt.Println()
	}
}

func showMenu() {
	fmt.Println("┌──────────────────────────────┐")
	fmt.Println("  1) 音声ファイルから投稿文を作成")
	fmt.Println("  2) メモから台本を作成")
	fmt.Println("  3) 投稿履歴")
	fmt.Println("  4) プロフィール")
	fmt.Println("  5) 保存した台本を書き出す")
	fmt.Println("  6) ステータス")
	fmt.Println("  0) 終了")
	fmt.Println("└──────────────────────────────┘")
}

func prompt(label string) string {
	fmt.Print(label)
	if !input.Scan() {
		return "quit"
	}
	return strings.TrimSpace(input.Text())
}

func promptDefault(label, def string) string {
	if v := prompt(fmt.Sprintf("%s [%s]: ", label, def)); v != "" {
		return v
	}
	return def
}

func generation() *services.GenerationService {
	return di.GetContainer().Get(di.ServiceGeneration).(*services.GenerationService)
}

func processAudio() {
	path := prompt("音声ファイルのパス: ")
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ 読み込みに失敗しました: %v\n", err)
		return
	}
	tone := models.ParseTone(promptDefault("トーン (standard/casual/polite/formal/short)", string(models.ToneStandard)))

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	fmt.Println("⏳ 処理中...")
	outcome, err := generation().Process(ctx, services.AudioUpload{
		Data:        data,
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Tone:        tone,
	}, nil)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if outcome.Mock {
		fmt.Println("ℹ️  APIキー未設定のためサンプルを表示しています")
	}

	r := outcome.Result
	fmt.Println("\n【タイトル案】")
	for i, title := range r.Titles {
		fmt.Printf("  %d. %s\n", i+1, title)
	}
	fmt.Printf("\n【要約】\n%s\n", r.Summary)
	fmt.Printf("\n【X投稿】\n%s\n", r.XPost)
	fmt.Printf("\n【概要欄】\n%s\n", r.Description)
}

func generateScript() {
	memo := prompt("メモ: ")
	if memo == "" {
		fmt.Println("メモを入力してください")
		return
	}
	req := services.ScriptRequest{
		Memo:       memo,
		Tone:       models.ParseTone(promptDefault("トーン", string(models.ToneStandard))),
		Length:     models.ParseScriptLength(promptDefault("長さ (short/standard/long)", string(models.LengthStandard))),
		AutoSelect: strings.EqualFold(promptDefault("過去の投稿を素材にする? (y/n)", "y"), "y"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	outcome, err := generation().ProcessScript(ctx, req, nil)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	for _, m := range outcome.Materials {
		fmt.Printf("📎 %s (%s)\n", m.Title, m.Reason)
	}
	if outcome.MaterialWarning {
		fmt.Println("⚠️  関連する過去の投稿が見つかりませんでした")
	}
	fmt.Println()
	fmt.Println(outcome.Script.FullText)

	if strings.EqualFold(promptDefault("ライブラリに保存しますか? (y/n)", "n"), "y") {
		sourceIDs := make([]string, 0, len(outcome.Materials))
		for _, m := range outcome.Materials {
			sourceIDs = append(sourceIDs, m.PostID)
		}
		scripts := di.GetContainer().Get(di.ServiceScripts).(*services.ScriptLibraryService)
		saved, err := scripts.Save(models.SavedScript{
			MemoText:      memo,
			SourcePostIDs: sourceIDs,
			ScriptText:    outcome.Script.FullText,
			Title:         outcome.Script.Title,
			Tone:          req.Tone,
			Length:        req.Length,
		})
		if err != nil {
			fmt.Printf("❌ 保存に失敗しました: %v\n", err)
			return
		}
		fmt.Printf("✅ 保存しました (id: %s)\n", saved.ID)
	}
}

func showHistory() {
	history := di.GetContainer().Get(di.ServiceHistory).(*services.HistoryService)
	posts := history.Search(prompt("検索キーワード (空欄で全件): "))
	if len(posts) == 0 {
		fmt.Println("  (履歴はありません)")
		return
	}
	for i, post := range posts {
		fmt.Printf("  %d) %s  %s\n", i+1, post.CreatedAt.Local().Format("2006-01-02 15:04"), post.Title)
	}
}

func showProfile() {
	profiles := di.GetContainer().Get(di.ServiceProfile).(*services.ProfileService)
	fmt.Println("概要欄プレビュー:")
	fmt.Println(profiles.PreviewDescription())
}

func exportScript() {
	scripts := di.GetContainer().Get(di.ServiceScripts).(*services.ScriptLibraryService)
	list := scripts.List()
	if len(list) == 0 {
		fmt.Println("  (保存した台本はありません)")
		return
	}
	for i, s := range list {
		fmt.Printf("  %d) %s [%s]\n", i+1, s.Title, s.ID)
	}

	id := prompt("書き出す台本のID: ")
	format := services.ExportFormat(promptDefault("形式 (txt/md/docx/json)", string(services.ExportText)))

	export := di.GetContainer().Get(di.ServiceExport).(*services.ExportService)
	file, err := export.ExportScript(id, format)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if err := os.WriteFile(file.Filename, file.Data, 0644); err != nil {
		fmt.Printf("❌ 書き出しに失敗しました: %v\n", err)
		return
	}
	fmt.Printf("✅ %s を書き出しました\n", file.Filename)
}

func showStatus(cfg *config.Config) {
	gen := generation()
	fmt.Printf("  生成プロバイダー: %s (%s)\n", cfg.Providers.GenerationProvider, cfg.Providers.GenerationModel)
	fmt.Printf("  ストレージ:       %s (%s)\n", cfg.Storage.Driver, cfg.Storage.DataDir)
	fmt.Printf("  音声モック:       %t\n", gen.MockMode())
	fmt.Printf("  台本モック:       %t\n", gen.ScriptMockMode())
	fmt.Printf("  登録サービス:     %s\n", strings.Join(di.GetContainer().GetNames(), ", "))
}
