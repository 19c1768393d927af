package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/constants"
	"github.com/rs/zerolog"
)

// NewLogger 以 JSON 輸出到 w (nil 時為 stdout), 帶 service 與 timestamp
// 等級由 SetLevel 控制, 設定檔熱更新時不需重建 logger
func NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).With().
		Timestamp().
		Str("service", constants.ServiceName).
		Logger()
}

// SetLevel 調整全域 log 等級, 無法解析時維持 info 並回傳錯誤
func SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)
	return err
}

// ParseLevel 空字串視為 info
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel, err
	}
	return lvl, nil
}
