package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const pepperSize = 32

// LoadOrCreatePepper reads the pepper stored at path, creating the file with
// a fresh random value when it does not exist yet. Losing this file makes
// every stored password hash unverifiable.
func LoadOrCreatePepper(path string) (string, error) {
	path = filepath.Clean(path)

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		pepper := strings.TrimSpace(string(b))
		if pepper == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		return pepper, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: create pepper dir: %w", err)
	}

	raw := make([]byte, pepperSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	pepper := base64.RawURLEncoding.EncodeToString(raw)

	// O_EXCL so two processes starting together cannot both write a pepper.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return LoadOrCreatePepper(path)
	}
	if err != nil {
		return "", fmt.Errorf("cryptox: create pepper: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(pepper); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return pepper, nil
}
