package services

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"kermittech/cv-screener/internal/models"
)

var allowedExtensions = map[models.DocumentKind][]string{
	models.DocumentKindCV:    {".pdf", ".docx"},
	models.DocumentKindAudio: {".mp3", ".wav", ".m4a", ".ogg", ".webm", ".flac"},
}

// StoredFile describes an upload written to the upload directory.
type StoredFile struct {
	Filename string
	Path     string
	MimeType string
}

type StorageService interface {
	SaveFile(file *multipart.FileHeader, kind models.DocumentKind) (*StoredFile, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// IsAllowedExtension reports whether filename may be uploaded as kind.
func IsAllowedExtension(filename string, kind models.DocumentKind) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedExtensions[kind] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// MimeTypeFor guesses a content type from the file extension.
func MimeTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (s *storageService) SaveFile(file *multipart.FileHeader, kind models.DocumentKind) (*StoredFile, error) {
	if !IsAllowedExtension(file.Filename, kind) {
		return nil, &ExtractionError{
			Kind: KindUnsupportedFormat,
			Path: file.Filename,
			Err:  fmt.Errorf("invalid %s file extension: %s", kind, filepath.Ext(file.Filename)),
		}
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))

	uniqueFilename := fmt.Sprintf("%s_%s%s", kind, uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &StoredFile{
		Filename: uniqueFilename,
		Path:     filePath,
		MimeType: MimeTypeFor(file.Filename),
	}, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filename)
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
