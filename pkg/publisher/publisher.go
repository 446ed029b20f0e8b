package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// stagedFile は一時ファイルと最終的な配置先の組です。
type stagedFile struct {
	tmp   string
	final string
}

// Publisher は成果物を一時ファイルとして書き出し、Commit でまとめて配置します。
// Commit 前に Abort すると、書き出した一時ファイルと作成したディレクトリをすべて取り除くのだ。
type Publisher struct {
	staged  []stagedFile
	created []string // Stage のために新規作成したディレクトリ (作成順)
	done    bool
}

// PublishResult は Commit によって配置されたファイルのパスです。
type PublishResult struct {
	Paths []string
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Stage は data を path と同じディレクトリの一時ファイルに書き出します。
func (p *Publisher) Stage(path string, data []byte) error {
	return p.StageWriter(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// StageWriter は write が書き込んだ内容を path 向けの一時ファイルとして保持します。
func (p *Publisher) StageWriter(path string, write func(w io.Writer) error) error {
	if p.done {
		return fmt.Errorf("publisher はすでに確定または破棄されています")
	}
	if slices.ContainsFunc(p.staged, func(s stagedFile) bool { return s.final == path }) {
		return fmt.Errorf("同じパスが二重に登録されました: %s", path)
	}

	dir := filepath.Dir(path)
	if err := p.mkdirAll(dir); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました %s: %w", path, err)
	}
	// 失敗時も Abort で消せるように、書き込み前に登録しておくのだ
	p.staged = append(p.staged, stagedFile{tmp: f.Name(), final: path})

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("ファイルの書き込みに失敗しました %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ファイルのクローズに失敗しました %s: %w", path, err)
	}
	slog.Debug("成果物をステージしました", "path", path, "tmp", f.Name())
	return nil
}

// placedFile は Commit で配置したファイルと、退避した既存ファイルの組です。
type placedFile struct {
	final  string
	backup string // 既存ファイルがなかった場合は空
}

// Commit はステージ済みのファイルを最終パスへリネームします。
// 既存のファイルは同じディレクトリへ退避しておき、途中で失敗した場合は元に戻すのだ。
func (p *Publisher) Commit() (PublishResult, error) {
	if p.done {
		return PublishResult{}, fmt.Errorf("publisher はすでに確定または破棄されています")
	}

	placed := make([]placedFile, 0, len(p.staged))
	for i, s := range p.staged {
		backup, err := backupExisting(s.final)
		if err == nil {
			err = os.Rename(s.tmp, s.final)
			if err != nil && backup != "" {
				err = errors.Join(err, os.Rename(backup, s.final))
			}
		}
		if err != nil {
			rollbackErr := rollback(placed)
			p.staged = p.staged[i:]
			abortErr := p.Abort()
			return PublishResult{}, errors.Join(fmt.Errorf("成果物の配置に失敗しました %s: %w", s.final, err), rollbackErr, abortErr)
		}
		placed = append(placed, placedFile{final: s.final, backup: backup})
	}

	result := PublishResult{Paths: make([]string, 0, len(placed))}
	for _, pf := range placed {
		if pf.backup != "" {
			if err := os.Remove(pf.backup); err != nil {
				slog.Warn("退避ファイルの削除に失敗しました", "path", pf.backup, "error", err)
			}
		}
		result.Paths = append(result.Paths, pf.final)
	}

	p.staged = nil
	p.created = nil
	p.done = true
	return result, nil
}

// backupExisting は path に既存の通常ファイルがあれば同じディレクトリの退避ファイルへ移し、そのパスを返します。
// ディレクトリなど通常ファイル以外は退避しません。
func backupExisting(path string) (string, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return "", fmt.Errorf("退避ファイルの作成に失敗しました %s: %w", path, err)
	}
	backup := f.Name()
	_ = f.Close()
	if err := os.Rename(path, backup); err != nil {
		_ = os.Remove(backup)
		return "", fmt.Errorf("既存ファイルの退避に失敗しました %s: %w", path, err)
	}
	return backup, nil
}

// rollback は配置済みのファイルを新しい順に取り除き、退避したファイルを元のパスへ戻します。
func rollback(placed []placedFile) error {
	var errs []error
	for _, pf := range slices.Backward(placed) {
		if err := os.Remove(pf.final); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		if pf.backup == "" {
			continue
		}
		if err := os.Rename(pf.backup, pf.final); err != nil {
			errs = append(errs, fmt.Errorf("既存ファイルの復元に失敗しました %s: %w", pf.final, err))
		}
	}
	return errors.Join(errs...)
}

// Abort はステージ済みの一時ファイルと、Stage が作成したディレクトリを削除します。
// 何度呼んでも安全です。
func (p *Publisher) Abort() error {
	var errs []error
	for _, s := range p.staged {
		if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	for _, dir := range slices.Backward(p.created) {
		if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	p.staged = nil
	p.created = nil
	p.done = true
	return errors.Join(errs...)
}

// mkdirAll は存在しないディレクトリを親から順に作成し、作成したものを記録します。
func (p *Publisher) mkdirAll(dir string) error {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	for _, d := range slices.Backward(missing) {
		if err := os.Mkdir(d, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return err
		}
		p.created = append(p.created, d)
	}
	return nil
}
