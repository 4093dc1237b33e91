package files

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"exrecon/pkg/contracts/domain"
)

// DoubleStar matches zero or more directories when it is a whole pattern segment.
const DoubleStar = "**"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindFilesByPattern finds regular files under dir matching pattern.
//
// Pattern segments use filepath.Match syntax, and a "**" segment matches zero
// or more directories. Wildcards do not match names starting with a dot
// unless the pattern segment does. Results come back in lexical walk order.
// A pattern whose root does not exist matches nothing.
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	segments, err := splitPattern(pattern)
	if err != nil {
		return nil, err
	}

	root := d.resolve(dir)
	if filepath.IsAbs(pattern) {
		root = string(filepath.Separator)
	}

	// Descend through the literal prefix so the walk starts as deep as possible.
	for len(segments) > 1 && !hasMeta(segments[0]) {
		root = filepath.Join(root, segments[0])
		segments = segments[1:]
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == root {
				return fs.SkipAll
			}
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if !matchSegments(segments, strings.Split(filepath.ToSlash(rel), "/")) {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return nil
		}
		files = append(files, FileInfo{
			Path:    p,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}

// Inventory counts the files matching pattern by base name, in order of first
// appearance, and suggests a recursive pattern that selects each name alone.
func (d *Discovery) Inventory(dir string, pattern string) ([]domain.FileCount, error) {
	found, err := d.FindFilesByPattern(dir, pattern)
	if err != nil {
		return nil, err
	}

	prefix := literalPrefix(pattern)
	index := make(map[string]int)
	var counts []domain.FileCount
	for _, f := range found {
		i, ok := index[f.Name]
		if !ok {
			i = len(counts)
			index[f.Name] = i
			counts = append(counts, domain.FileCount{
				Name: f.Name,
				Glob: path.Join(prefix, DoubleStar, f.Name),
			})
		}
		counts[i].Count++
		counts[i].Paths = append(counts[i].Paths, f.Path)
	}

	return counts, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// splitPattern breaks a pattern into slash-separated segments and rejects
// malformed ones up front.
func splitPattern(pattern string) ([]string, error) {
	var segments []string
	for _, s := range strings.Split(filepath.ToSlash(pattern), "/") {
		if s == "" || s == "." {
			continue
		}
		if _, err := path.Match(s, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		segments = append(segments, s)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("invalid pattern %q: no path segments", pattern)
	}
	return segments, nil
}

// literalPrefix returns the directories of pattern before its first wildcard.
func literalPrefix(pattern string) string {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	var prefix []string
	for _, s := range segments[:len(segments)-1] {
		if hasMeta(s) {
			break
		}
		prefix = append(prefix, s)
	}
	if len(prefix) == 0 {
		return ""
	}
	p := path.Join(prefix...)
	if strings.HasPrefix(pattern, "/") {
		p = "/" + p
	}
	return p
}

func matchSegments(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	if pattern[0] == DoubleStar {
		if matchSegments(pattern[1:], name) {
			return true
		}
		return len(name) > 0 && !hidden(name[0]) && matchSegments(pattern, name[1:])
	}
	if len(name) == 0 || !matchOne(pattern[0], name[0]) {
		return false
	}
	return matchSegments(pattern[1:], name[1:])
}

func matchOne(pattern, name string) bool {
	if hidden(name) && !strings.HasPrefix(pattern, ".") {
		return false
	}
	ok, _ := path.Match(pattern, name)
	return ok
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func hasMeta(segment string) bool {
	return strings.ContainsAny(segment, `*?[\`)
}
