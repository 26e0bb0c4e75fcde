package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrTooLarge возвращается, когда файл больше допустимого размера.
var ErrTooLarge = errors.New("storage: файл превышает допустимый размер")

// StoredImage - результат сохранения фотографии.
type StoredImage struct {
	Key  string
	URL  string
	Size int64
}

// PhotoStorage отвечает за локальное файловое хранилище фотографий питомцев.
type PhotoStorage struct {
	rootPath       string
	baseURL        string
	maxUploadBytes int64
}

// NewPhotoStorage создаёт файловое хранилище. baseURL - префикс, под которым
// каталог раздаётся статикой (например, /media).
func NewPhotoStorage(rootPath, baseURL string, maxUploadMB int64) (*PhotoStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &PhotoStorage{
		rootPath:       rootPath,
		baseURL:        strings.TrimRight(baseURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Root возвращает корневой каталог хранилища.
func (s *PhotoStorage) Root() string {
	return s.rootPath
}

// Save сохраняет файл в каталог владельца.
func (s *PhotoStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName, _ string, r io.Reader) (StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return StoredImage{}, err
	}

	key := objectKey(ownerID, originalName)

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return StoredImage{}, fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	targetPath := filepath.Join(s.rootPath, filepath.FromSlash(key))
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return StoredImage{}, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return StoredImage{}, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return StoredImage{}, ErrTooLarge
	}

	if err := f.Close(); err != nil {
		return StoredImage{}, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return StoredImage{}, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return StoredImage{Key: key, URL: s.baseURL + "/" + key, Size: written}, nil
}

// Delete удаляет файл из хранилища. Отсутствующий файл ошибкой не считается.
func (s *PhotoStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return nil
	}

	clean := path.Clean("/" + key)
	target := filepath.Join(s.rootPath, filepath.FromSlash(clean))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// objectKey формирует ключ вида <owner>/<owner>_<nanotime><ext>.
func objectKey(ownerID uuid.UUID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(sanitizeFilename(originalName)))
	return path.Join(ownerID.String(), fmt.Sprintf("%s_%d%s", ownerID.String(), time.Now().UnixNano(), ext))
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "photo"
	}
	return name
}
