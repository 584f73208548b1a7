// Package sharedfs is the sandboxed shared-workspace filesystem (§4.7):
// read/write/list/delete operations rooted at one configured directory,
// with every path argument confined inside that root after resolution.
//
// Grounded on internal/worker/filebrowser.securePath's absolute-path
// resolution and internal/hub/validate.SanitizePath's
// reject-traversal-before-normalizing discipline, generalized into a
// single root-confinement check (prefix match plus symlink resolution of
// the nearest existing ancestor) since this package, unlike the teacher's
// filebrowser, must refuse escapes rather than merely normalize the
// caller's own machine-local paths.
package sharedfs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentnet/hub/internal/apierr"
)

const dirPerm = 0o750

// Entry describes one file or directory under the root.
type Entry struct {
	Name    string `json:"name"`
	IsDir   bool   `json:"isDir"`
	Size    int64  `json:"size"`
	ModTime string `json:"modTime"`
}

// FS is a sandbox rooted at Root.
type FS struct {
	Root string
}

// New returns a sandbox rooted at root. The root is created if missing.
func New(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, err
	}
	return &FS{Root: abs}, nil
}

// resolve confines relPath inside the sandbox root, rejecting traversal
// via "..", absolute paths, or symlinks that would resolve outside root.
func (f *FS) resolve(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", apierr.Validation("path %q must be relative to the shared root", relPath)
	}
	for _, comp := range strings.Split(relPath, "/") {
		if comp == ".." {
			return "", apierr.Validation("path %q escapes the shared root", relPath)
		}
	}

	joined := filepath.Join(f.Root, relPath)
	cleaned := filepath.Clean(joined)
	if cleaned != f.Root && !strings.HasPrefix(cleaned, f.Root+string(filepath.Separator)) {
		return "", apierr.Validation("path %q escapes the shared root", relPath)
	}

	if err := f.rejectSymlinkEscape(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}

// rejectSymlinkEscape walks up from the nearest existing ancestor of
// path and verifies EvalSymlinks still resolves inside the root.
func (f *FS) rejectSymlinkEscape(path string) error {
	ancestor := path
	for {
		if _, err := os.Lstat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return nil // reached filesystem root without finding anything — nothing to resolve yet
		}
		ancestor = parent
	}

	resolved, err := filepath.EvalSymlinks(ancestor)
	if err != nil {
		return apierr.Validation("resolve path: %v", err)
	}
	if resolved != f.Root && !strings.HasPrefix(resolved, f.Root+string(filepath.Separator)) {
		return apierr.Validation("path escapes the shared root via a symlink")
	}
	return nil
}

// Read returns the content of relPath.
func (f *FS) Read(relPath string) ([]byte, error) {
	abs, err := f.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierr.NotFound("%q not found", relPath)
		}
		return nil, apierr.Store(err, "read %q", relPath)
	}
	return data, nil
}

// Write creates relPath (and any missing parent directories) with content.
func (f *FS) Write(relPath string, content []byte) error {
	abs, err := f.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return apierr.Store(err, "create parent directories for %q", relPath)
	}
	if err := os.WriteFile(abs, content, 0o640); err != nil {
		return apierr.Store(err, "write %q", relPath)
	}
	return nil
}

// List returns the entries directly inside relPath (the root itself if
// relPath is empty).
func (f *FS) List(relPath string) ([]Entry, error) {
	abs, err := f.resolve(relPath)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierr.NotFound("%q not found", relPath)
		}
		return nil, apierr.Store(err, "list %q", relPath)
	}

	out := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    de.Name(),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC().Format("2006-01-02T15:04:05.000Z"),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes relPath (file or, recursively, a directory).
func (f *FS) Delete(relPath string) error {
	abs, err := f.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		if os.IsNotExist(err) {
			return apierr.NotFound("%q not found", relPath)
		}
		return apierr.Store(err, "delete %q", relPath)
	}
	return nil
}

// RelPath converts an absolute path under the root back into a
// root-relative path.
func (f *FS) RelPath(abs string) (string, error) {
	return filepath.Rel(f.Root, abs)
}
