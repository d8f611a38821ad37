package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileGateway stores each key as a file under a directory. Versions are the
// SHA-256 of the content, so conditional writes only hold within one process.
type FileGateway struct {
	mu  sync.Mutex
	dir string
}

// NewFileGateway creates the directory if needed.
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create gateway dir: %w", err)
	}
	return &FileGateway{dir: dir}, nil
}

func (g *FileGateway) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(g.dir, key+".blob"), nil
}

func (g *FileGateway) IsAvailable(ctx context.Context) (bool, error) {
	info, err := os.Stat(g.dir)
	if err != nil {
		return false, nil
	}
	return info.IsDir(), nil
}

func (g *FileGateway) GetData(ctx context.Context, key string) ([]byte, error) {
	b, err := g.GetVersioned(ctx, key)
	return b.Data, err
}

func (g *FileGateway) GetVersioned(ctx context.Context, key string) (Blob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.read(key)
}

func (g *FileGateway) read(key string) (Blob, error) {
	p, err := g.path(key)
	if err != nil {
		return Blob{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Blob{}, nil
		}
		return Blob{}, err
	}
	return Blob{Data: data, Version: contentVersion(data)}, nil
}

func (g *FileGateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.write(key, data); err != nil {
		return Receipt{}, err
	}
	return newReceipt(key, data), nil
}

func (g *FileGateway) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.read(key)
	if err != nil {
		return Receipt{}, err
	}
	if current.Version != version {
		return Receipt{}, ErrVersionConflict
	}
	if err := g.write(key, data); err != nil {
		return Receipt{}, err
	}
	return newReceipt(key, data), nil
}

// write goes through a temp file so readers never see a partial blob.
func (g *FileGateway) write(key string, data []byte) error {
	p, err := g.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(g.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (g *FileGateway) Address(ctx context.Context) (string, error) {
	abs, err := filepath.Abs(g.dir)
	if err != nil {
		abs = g.dir
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (g *FileGateway) Backend() string { return BackendFile }

func (g *FileGateway) Close() error { return nil }

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
