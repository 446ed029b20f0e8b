package domain

import (
	"errors"
	"fmt"
)

// エラー種別の番兵値です。errors.Is で判定します。
var (
	ErrConfig  = errors.New("configuration error")
	ErrService = errors.New("external service error")
	ErrShape   = errors.New("shape error")
)

// ConfigError は認証情報の欠落や不正な列挙値など、実行前に検出される設定エラーです。
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrConfig, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrConfig, e.Msg)
}

// Unwrap は ErrConfig と元のエラーの両方を辿れるようにします。
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfig, e.Err}
	}
	return []error{ErrConfig}
}

// NewConfigError は書式付きの ConfigError を生成します。
func NewConfigError(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ServiceError は外部生成サービス由来のエラーです。元のメッセージはそのまま保持します。
type ServiceError struct {
	Backend string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrService, e.Backend, e.Err)
}

func (e *ServiceError) Unwrap() []error {
	return []error{ErrService, e.Err}
}

// ShapeError は期待した形状と実際の形状が一致しないことを表します。
type ShapeError struct {
	What     string
	Expected string
	Actual   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", ErrShape, e.What, e.Expected, e.Actual)
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}
