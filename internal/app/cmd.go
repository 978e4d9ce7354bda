package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーと自動実行スケジューラを起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は自動実行スケジューラのみを起動することを示す。
	CommandWorker Command = "worker"
	// CommandRun は1テナント分の自動実行を1回だけ行うことを示す。
	CommandRun Command = "run"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "run":
		return CommandRun
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// runTarget は run コマンドの対象クライアントIDを返す。省略時はデフォルトテナント（空文字）。
func runTarget(args []string) string {
	if len(args) < 2 {
		return ""
	}
	return args[1]
}
