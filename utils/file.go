package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// EnsureUploadDir creates the uploads directory if it doesn't exist
func EnsureUploadDir() error {
	return os.MkdirAll("uploads", os.ModePerm)
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

// StoreUpload puts the file on R2 when configured, otherwise under the local
// uploads dir served via /uploads. Returns the public URL either way.
func StoreUpload(fileHeader *multipart.FileHeader, key string) (string, error) {
	if R2Enabled() {
		return UploadFileToR2(fileHeader, key)
	}
	destPath := filepath.Join("uploads", filepath.FromSlash(key))
	if err := SaveFile(fileHeader, destPath); err != nil {
		return "", err
	}
	return "/uploads/" + key, nil
}

// SafeExt returns a lowercase file extension limited to a known image set;
// anything else comes back empty so user-supplied names can't smuggle paths.
func SafeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	return ""
}
