package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates every relative path under root with placeholder content.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("a,b\n1,2\n"), 0644))
	}
}

func relPaths(t *testing.T, root string, files []FileInfo) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func TestFindFilesByPattern(t *testing.T) {
	tree := []string{
		"Funding.csv",
		"2024/01/Funding.csv",
		"2024/02/Funding.csv",
		"2024/02/Spot.csv",
		"2025/Funding.csv",
		"2025/notes.txt",
		".cache/Funding.csv",
		"2025/.hidden.csv",
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{
			name:    "double star matches zero or more directories",
			pattern: "**/Funding.csv",
			want:    []string{"2024/01/Funding.csv", "2024/02/Funding.csv", "2025/Funding.csv", "Funding.csv"},
		},
		{
			name:    "literal prefix narrows the walk",
			pattern: "2024/**/Funding.csv",
			want:    []string{"2024/01/Funding.csv", "2024/02/Funding.csv"},
		},
		{
			name:    "single star stays in one directory",
			pattern: "2024/*/*.csv",
			want:    []string{"2024/01/Funding.csv", "2024/02/Funding.csv", "2024/02/Spot.csv"},
		},
		{
			name:    "plain glob in the root",
			pattern: "*.csv",
			want:    []string{"Funding.csv"},
		},
		{
			name:    "exact path",
			pattern: "2025/notes.txt",
			want:    []string{"2025/notes.txt"},
		},
		{
			name:    "explicit dot pattern matches hidden files",
			pattern: "**/.*.csv",
			want:    []string{"2025/.hidden.csv"},
		},
		{
			name:    "no match",
			pattern: "**/Withdrawals.csv",
			want:    nil,
		},
		{
			name:    "missing root matches nothing",
			pattern: "2030/**/Funding.csv",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tree...)

			files, err := NewDiscovery(root).FindFilesByPattern("", tt.pattern)
			require.NoError(t, err)
			got := relPaths(t, root, files)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindFilesByPattern_FileInfo(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/report.csv")

	files, err := NewDiscovery(root).FindFilesByPattern("a", "*.csv")
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "report.csv", files[0].Name)
	assert.Equal(t, filepath.Join(root, "a", "report.csv"), files[0].Path)
	assert.Equal(t, int64(len("a,b\n1,2\n")), files[0].Size)
	assert.False(t, files[0].ModTime.IsZero())
}

func TestFindFilesByPattern_AbsolutePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x/data.csv")

	files, err := NewDiscovery("/somewhere/else").FindFilesByPattern(root, "**/data.csv")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	pattern := filepath.ToSlash(filepath.Join(root, "**", "data.csv"))
	files, err = NewDiscovery("/somewhere/else").FindFilesByPattern("", pattern)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFindFilesByPattern_InvalidPattern(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindFilesByPattern("", "**/[.csv")
	assert.Error(t, err)

	_, err = NewDiscovery(t.TempDir()).FindFilesByPattern("", "")
	assert.Error(t, err)
}

func TestInventory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"exports/2024/Funding.csv",
		"exports/2024/Spot.csv",
		"exports/2025/Funding.csv",
		"exports/2025/q1/Funding.csv",
	)

	counts, err := NewDiscovery(root).Inventory("", "exports/**/*.csv")
	require.NoError(t, err)
	require.Len(t, counts, 2)

	assert.Equal(t, "Funding.csv", counts[0].Name)
	assert.Equal(t, 3, counts[0].Count)
	assert.Len(t, counts[0].Paths, 3)
	assert.Equal(t, "exports/**/Funding.csv", counts[0].Glob)

	assert.Equal(t, "Spot.csv", counts[1].Name)
	assert.Equal(t, 1, counts[1].Count)
	assert.Equal(t, "exports/**/Spot.csv", counts[1].Glob)
}

func TestInventory_SuggestedGlobFindsSameFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/Trades.csv", "b/c/Trades.csv", "b/Other.csv")
	d := NewDiscovery(root)

	counts, err := d.Inventory("", "**/*.csv")
	require.NoError(t, err)

	for _, c := range counts {
		files, err := d.FindFilesByPattern("", c.Glob)
		require.NoError(t, err)
		assert.Len(t, files, c.Count, c.Glob)
	}
}

func TestLiteralPrefix(t *testing.T) {
	tests := []struct {
		pattern, want string
	}{
		{"**/*.csv", ""},
		{"*.csv", ""},
		{"data/**/*.csv", "data"},
		{"data/2024/*.csv", "data/2024"},
		{"/abs/dir/**/x.csv", "/abs/dir"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, literalPrefix(tt.pattern))
		})
	}
}
