package app

// Command はclothtrackerバイナリの起動モードを表す。
// 1つのイメージをサブコマンドだけ変えてAPIサーバー・クリーンアップ
// ワーカー・マイグレーションに使い回すための区別。
type Command string

const (
	// CommandServe はAPIサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker は認証データのクリーンアップワーカーとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate は埋め込みマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のサーバーに疎通確認して終了する。
	// shellを持たないコンテナイメージでのHEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は先頭引数をサブコマンドとして解釈する。
// 引数なし・未知のコマンドはいずれもserve扱い。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
