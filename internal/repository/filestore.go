package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrNotFound は更新・削除対象が存在しない場合のエラー。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約に違反する場合のエラー。
	ErrDuplicate = errors.New("duplicate record")
	// ErrCorruptFile はデータファイルがJSONとして解析できない場合のエラー。
	ErrCorruptFile = errors.New("corrupt data file")
)

// FileStore はDATA_DIR配下のJSONファイルへの読み書きを提供する。
// 書き込みは一時ファイルへ出力した後にリネームするため、読み手が書きかけの内容を見ることはない。
// プロセス間のロックは行わない。
type FileStore struct {
	dir string

	// mu は共有ファイル（clients/users/sessions）と設定の読み込み→更新→書き込みを直列化する。
	mu sync.Mutex
}

// NewFileStore はデータディレクトリを作成してFileStoreを返す。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("データディレクトリの作成に失敗しました: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir はデータディレクトリのパスを返す。
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON はファイルを読み込みvにデコードする。
// ファイルが存在しない場合はvを変更せずfalseを返す。
// 空ファイルは存在しないものとして扱う。
func (s *FileStore) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%s の読み込みに失敗しました: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptFile, name, err)
	}
	return true, nil
}

// writeJSON はvを2スペースインデントのJSONとしてアトミックに書き込む。
func (s *FileStore) writeJSON(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s のエンコードに失敗しました: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%s の一時ファイル作成に失敗しました: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%s の書き込みに失敗しました: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%s の書き込みに失敗しました: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("%s の権限設定に失敗しました: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		cleanup()
		return fmt.Errorf("%s の置き換えに失敗しました: %w", name, err)
	}
	return nil
}

// remove はファイルを削除する。存在しない場合は何もしない。
func (s *FileStore) remove(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s の削除に失敗しました: %w", name, err)
	}
	return nil
}

// RemoveTenant はテナントの企業・受信者・ブログ・設定・送信済み記録のファイルを削除する。
// デフォルトテナントのファイルは削除しない。
func (s *FileStore) RemoveTenant(tenant Tenant) error {
	if tenant.IsDefault() {
		return fmt.Errorf("default tenant files cannot be removed")
	}
	var errs []error
	for _, kind := range tenantKinds {
		if err := s.remove(tenant.fileName(kind)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
