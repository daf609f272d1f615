package tilestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
)

// FilesystemStore lays tiles out as root/z/x/y, the same tree tile servers use.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tile dir: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

var _ Store = (*FilesystemStore)(nil)

func (s *FilesystemStore) Get(_ context.Context, addr geo.TileAddress) ([]byte, bool, error) {
	content, err := os.ReadFile(s.pathFor(addr))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return content, true, nil
}

func (s *FilesystemStore) Set(_ context.Context, addr geo.TileAddress, data []byte) error {
	path := s.pathFor(addr)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	// write-then-rename so readers never see a torn tile
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FilesystemStore) pathFor(addr geo.TileAddress) string {
	return filepath.Join(s.root,
		fmt.Sprint(addr.Zoom),
		fmt.Sprint(addr.X),
		fmt.Sprint(addr.Y),
	)
}
