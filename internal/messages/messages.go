// Package messages holds the user-facing texts of the adapter in English
// and Japanese.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	LaunchInvalid   = "Failed to start the debugger (invalid launch arguments): %s"
	CompilerMissing = "Cannot start compiling. HSP directory: %s"
	CompileFailed   = "A compile error occurred.\r\n%s"
	ChannelFailed   = "Cannot listen for the debuggee on %s: %v"
	SpawnFailed     = "Failed to start the runtime %s: %v"
	DebuggeeExited  = "The program exited with code %d."
	DebuggeeFailed  = "The program stopped unexpectedly: %v"
	SessionBusy     = "A debug session is already running."
	Unsupported     = "Unsupported command: %s"
	InternalError   = "Internal debugger error: %v"
	GlobalsScope    = "Globals"
	MainThread      = "main"
)

var japanese = map[string]string{
	LaunchInvalid:   "デバッガーの起動に失敗しました。(launch 引数が不正です: %s)",
	CompilerMissing: "コンパイルを開始できません。指定されたHSPのディレクトリ: %s",
	CompileFailed:   "コンパイルエラーが発生しました。\r\n%s",
	ChannelFailed:   "デバッグ用の接続を %s で待ち受けできません: %v",
	SpawnFailed:     "ランタイム %s を起動できません: %v",
	DebuggeeExited:  "プログラムが終了しました。(終了コード %d)",
	DebuggeeFailed:  "プログラムが異常終了しました: %v",
	SessionBusy:     "デバッグ実行は既に開始されています。",
	Unsupported:     "対応していないコマンドです: %s",
	InternalError:   "デバッガー内部のエラーです: %v",
	GlobalsScope:    "グローバル",
	MainThread:      "main",
}

var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
	texts     = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, ja := range japanese {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Japanese, key, ja)
	}
	return b
}

// Localizer renders messages for one client locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// For returns a Localizer for a BCP 47 locale such as "ja" or "en-US".
// Unknown or empty locales fall back to English.
func For(locale string) *Localizer {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, index, confidence := matcher.Match(parsed)
			if confidence != language.No {
				tag = supported[index]
			}
		}
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(texts))}
}

// Sprintf formats the message key in the localizer's language.
func (l *Localizer) Sprintf(key string, args ...interface{}) string {
	return l.printer.Sprintf(key, args...)
}

// Language returns the selected language.
func (l *Localizer) Language() language.Tag {
	return l.tag
}
