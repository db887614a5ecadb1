package cert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// credentialDirName is the product subdirectory under the application's
// private data directory.
const credentialDirName = "lens"

// credentialDirPerm restricts the credential directory to its owner.
const credentialDirPerm = 0o700

// ErrNotADirectory indicates the credential path exists but is not a
// directory.
var ErrNotADirectory = errors.New("credential path exists but is not a directory")

// FileStore stores the credential set under
// <privateAppDirectory>/lens/. Files are read fresh on every call; the
// desktop may have written new certificates since the last read.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a credential store rooted in the application's
// private data directory.
func NewFileStore(privateAppDir string) *FileStore {
	return &FileStore{
		baseDir: filepath.Join(privateAppDir, credentialDirName),
	}
}

// Dir returns the absolute path of the credential directory.
func (s *FileStore) Dir() string {
	return s.baseDir
}

// Path returns the absolute path of a named credential file.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

// Read returns the contents of a named credential file, or an empty
// slice when the file is absent or unreadable.
func (s *FileStore) Read(name string) []byte {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil
	}
	return data
}

// IsUsable reports whether all three credential artifacts are present
// and non-empty. The desktop writes the certificates out-of-band, so a
// partially populated directory is a normal transient state and simply
// reads as unusable.
func (s *FileStore) IsUsable() bool {
	for _, name := range []string{CACertFileName, ClientCertFileName, PrivateKeyFileName} {
		if len(s.Read(name)) == 0 {
			return false
		}
	}
	return true
}

// EnsureDir creates the credential directory with owner-only
// permissions if it does not exist.
func (s *FileStore) EnsureDir() error {
	info, err := os.Stat(s.baseDir)
	if os.IsNotExist(err) {
		return os.MkdirAll(s.baseDir, credentialDirPerm)
	}
	if err != nil {
		return fmt.Errorf("failed to stat credential directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, s.baseDir)
	}
	return nil
}

// Verify FileStore implements Store.
var _ Store = (*FileStore)(nil)
