package config

import (
	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/shouni/go-utils/envutil"
)

// ResolveAPIKey は認証情報を明示指定、環境変数の順で探します。
// gemini は GOOGLE_API_KEY → GEMINI_API_KEY、openai は OPENAI_API_KEY を参照します。
// どこにも無ければ、設定方法を示す ConfigError を返すのだ。
func ResolveAPIKey(explicit, backend string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	var keys []string
	switch backend {
	case BackendOpenAI:
		keys = []string{"OPENAI_API_KEY"}
	default:
		keys = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	}
	for _, key := range keys {
		if v := envutil.GetEnv(key, ""); v != "" {
			return v, nil
		}
	}

	if backend == BackendOpenAI {
		return "", domain.NewConfigError("APIキーが見つかりません。OPENAI_API_KEY を設定するか --api-key を指定してください")
	}
	return "", domain.NewConfigError("APIキーが見つかりません。GEMINI_API_KEY か GOOGLE_API_KEY を設定するか --api-key を指定してください")
}
