package rehydrate_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/boardfile-dev/boardfile/internal/rehydrate"
	"github.com/boardfile-dev/boardfile/internal/store"
)

func newEngine(t *testing.T) (*rehydrate.Engine, *store.Store) {
	t.Helper()

	s, openErr := store.Open(context.Background(), filepath.Join(t.TempDir(), "boardfile.db"))
	require.NoError(t, openErr)

	t.Cleanup(func() { _ = s.Close() })

	return rehydrate.New(s), s
}

func writeTreeFile(t *testing.T, root string, parts ...string) {
	t.Helper()

	content := parts[len(parts)-1]
	path := filepath.Join(append([]string{root}, parts[:len(parts)-1]...)...)

	mkdirErr := os.MkdirAll(filepath.Dir(path), 0o750)
	require.NoError(t, mkdirErr)

	writeErr := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, writeErr)
}

// sampleTree lays out a small but complete project: a descriptor, two
// work items (one relying on directive fallbacks), an unparsable file,
// and one agent.
func sampleTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	writeTreeFile(t, root, "project.md",
		"---\nid: proj\ntitle: \"Demo Board\"\ncreatedAt: 2026-01-02T03:04:05Z\n---\n\nDescriptor body\n")

	writeTreeFile(t, root, "work-items", "auth.md",
		"---\nid: auth\ntitle: \"Auth epic\"\ntype: Epic\nstatus: InProgress\npriority: High\norderIndex: 1\ncreatedAt: 2026-01-02T03:04:05Z\nupdatedAt: 2026-01-02T03:04:05Z\n---\n\n## Description\n\nFix the bug ::task[Patch auth check]{priority=\"high\"}\n")

	writeTreeFile(t, root, "work-items", "bare.md",
		"---\nid: bare\ntitle: \"Bare item\"\norderIndex: 2\ncreatedAt: 2026-01-02T03:04:05Z\nupdatedAt: 2026-01-02T03:04:05Z\n---\n\n::task[Seed]{type=Story, status=Testing}\n")

	writeTreeFile(t, root, "work-items", "broken.md", "not a record\n")

	writeTreeFile(t, root, "agents", "scout.md",
		"---\nid: scout\ntitle: \"Scout\"\n---\n\nAgent charter ::agent[Scout]{model=opus}\n")

	return root
}

func Test_ImportProject_Creates_All_Documents(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	ctx := context.Background()

	result, importErr := engine.ImportProject(ctx, sampleTree(t))
	require.NoError(t, importErr)

	require.Equal(t, "Demo Board", result.Project.Name)
	require.Len(t, result.WorkItems, 2)
	require.Len(t, result.Agents, 1)
	require.Len(t, result.Skipped, 1)
	require.True(t, strings.HasSuffix(result.Skipped[0], "broken.md"))

	auth := result.WorkItems[0]
	require.Equal(t, "auth", auth.RecordID)
	require.Equal(t, "Epic", auth.Type)
	require.Equal(t, "InProgress", auth.Status)
	require.Equal(t, "High", auth.Priority)

	// The body is stored rendered: placeholder in, directive out.
	require.Contains(t, auth.Body, "{{snippet:task-")
	require.NotContains(t, auth.Body, "::task[")
	require.Contains(t, auth.Snippets, `"action":"create-task"`)
}

func Test_ImportProject_Falls_Back_To_Directive_Attrs(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	ctx := context.Background()

	result, importErr := engine.ImportProject(ctx, sampleTree(t))
	require.NoError(t, importErr)

	bare := result.WorkItems[1]
	require.Equal(t, "bare", bare.RecordID)

	// Frontmatter lacks type/status/priority; the first task directive
	// supplies type and status, the codec default supplies priority.
	require.Equal(t, "Story", bare.Type)
	require.Equal(t, "Testing", bare.Status)
	require.Equal(t, "Medium", bare.Priority)
}

func Test_ImportProject_Degrades_When_Descriptor_Missing(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	ctx := context.Background()

	root := t.TempDir()
	writeTreeFile(t, root, "work-items", "solo.md", "---\nid: solo\n---\n\nBody\n")

	result, importErr := engine.ImportProject(ctx, root)
	require.NoError(t, importErr)

	require.Equal(t, filepath.Base(root), result.Project.Name)
	require.Len(t, result.WorkItems, 1)
}

func Test_ImportProject_Assigns_Agent_Order_Sentinel(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	ctx := context.Background()

	result, importErr := engine.ImportProject(ctx, sampleTree(t))
	require.NoError(t, importErr)

	require.Len(t, result.Agents, 1)
	require.Equal(t, 1_000_000, result.Agents[0].OrderIndex)
	require.Equal(t, "Scout", result.Agents[0].Name)
}

func Test_ExportProject_Restores_Directive_Source(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	ctx := context.Background()

	result, importErr := engine.ImportProject(ctx, sampleTree(t))
	require.NoError(t, importErr)

	out := t.TempDir()

	exportErr := engine.ExportProject(ctx, result.Project.ID, out)
	require.NoError(t, exportErr)

	authSrc, readErr := os.ReadFile(filepath.Join(out, "work-items", "auth.md"))
	require.NoError(t, readErr)

	require.Contains(t, string(authSrc), `::task[Patch auth check]{priority=high}`)
	require.NotContains(t, string(authSrc), "{{snippet:")

	agentSrc, readErr := os.ReadFile(filepath.Join(out, "agents", "scout.md"))
	require.NoError(t, readErr)

	require.Contains(t, string(agentSrc), `::agent[Scout]{model=opus}`)
}

func Test_ExportProject_Skips_Agents_Directory_When_Empty(t *testing.T) {
	t.Parallel()

	engine, s := newEngine(t)
	ctx := context.Background()

	proj, createErr := s.CreateProject(ctx, "empty", mustTime(t, "2026-01-02T03:04:05Z"))
	require.NoError(t, createErr)

	out := t.TempDir()

	exportErr := engine.ExportProject(ctx, proj.ID, out)
	require.NoError(t, exportErr)

	_, statErr := os.Stat(filepath.Join(out, "agents"))
	require.True(t, os.IsNotExist(statErr), "agents directory must not be created")

	_, statErr = os.Stat(filepath.Join(out, "project.md"))
	require.NoError(t, statErr)
}

func Test_Export_Import_Export_Is_Byte_Stable(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	ctx := context.Background()

	first, importErr := engine.ImportProject(ctx, sampleTree(t))
	require.NoError(t, importErr)

	outA := t.TempDir()
	require.NoError(t, engine.ExportProject(ctx, first.Project.ID, outA))

	second, reimportErr := engine.ImportProject(ctx, outA)
	require.NoError(t, reimportErr)
	require.Empty(t, second.Skipped, "exported files must all re-parse")

	outB := t.TempDir()
	require.NoError(t, engine.ExportProject(ctx, second.Project.ID, outB))

	if diff := cmp.Diff(readTree(t, outA), readTree(t, outB)); diff != "" {
		t.Fatalf("export not byte-stable (-first +second):\n%s", diff)
	}
}

// readTree reads every file under root keyed by relative path. The
// descriptor is excluded: its id is the store-generated project key,
// which legitimately differs between imports.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if rel == "project.md" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		files[rel] = string(data)

		return nil
	})
	require.NoError(t, walkErr)

	return files
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, parseErr := time.Parse(time.RFC3339, value)
	require.NoError(t, parseErr)

	return parsed
}
