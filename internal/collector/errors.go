package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable 源不可达、超时或返回无法解析的内容
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceAuthRequired 受限源缺少凭证或凭证被拒绝
	ErrSourceAuthRequired = errors.New("source requires authentication")
)

// SourceError 记录失败的源与失败类型，支持 errors.Is(err, ErrSourceUnavailable)
type SourceError struct {
	Source Source
	Kind   error
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unavailable(src Source, err error) error {
	return &SourceError{Source: src, Kind: ErrSourceUnavailable, Err: err}
}

func authRequired(src Source, err error) error {
	return &SourceError{Source: src, Kind: ErrSourceAuthRequired, Err: err}
}

// AsSourceError 把任意错误归类为 SourceError，未知错误一律视为不可用
func AsSourceError(src Source, err error) *SourceError {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return se
	}
	return &SourceError{Source: src, Kind: ErrSourceUnavailable, Err: err}
}
