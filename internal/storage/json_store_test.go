package storage

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func record(id, name string) *domain.AthleteRecord {
	r := &domain.AthleteRecord{About: domain.AthleteProfile{ID: id, Name: name, Gender: "Male"}}
	r.About.Bio.Set("Hometown", "São Paulo, Brazil")
	r.Stats.Set("Takedowns & Reversals", "<1>")
	r.FightHistory.Add(domain.FightRecord{Fighter1ID: id, Fighter2ID: "x", Date: "Mar. 19, 2022"})
	return r
}

func ids(records []*domain.AthleteRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID())
	}
	return out
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "athletes.json")
	store := NewJSONStore(path, zap.NewNop())

	result, err := store.Persist([]*domain.AthleteRecord{record("a", "A"), record("b", "B"), record("c", "C")})
	require.NoError(t, err)
	require.Equal(t, PersistResult{Prior: 0, Added: 3, Total: 3}, result)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ids(loaded))
	require.Equal(t, "B", loaded[1].About.Name)
	require.Equal(t, []string{"a_vs_x_Mar_19_2022"}, loaded[0].FightHistory.Keys())

	known, err := store.KnownIDs()
	require.NoError(t, err)
	require.Len(t, known, 3)
	require.Contains(t, known, "c")
}

func TestPersistIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.json")
	store := NewJSONStore(path, zap.NewNop())
	fresh := []*domain.AthleteRecord{record("a", "A"), record("b", "B")}

	_, err := store.Persist(fresh)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := store.Persist(fresh)
	require.NoError(t, err)
	require.Equal(t, PersistResult{Prior: 2, Added: 0, Total: 2}, result)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestPersistKeepsPriorRecordOnIDCollision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.json")
	store := NewJSONStore(path, zap.NewNop())

	_, err := store.Persist([]*domain.AthleteRecord{record("a", "Old")})
	require.NoError(t, err)

	result, err := store.Persist([]*domain.AthleteRecord{record("a", "New"), record("b", "B")})
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids(loaded))
	require.Equal(t, "Old", loaded[0].About.Name)
}

func TestMerge(t *testing.T) {
	prior := []*domain.AthleteRecord{record("a", "A"), record("a", "dup"), record("", "anon")}
	fresh := []*domain.AthleteRecord{record("b", "B"), nil, record("", "anon2"), record("b", "B again")}

	merged, added := Merge(prior, fresh)

	require.Equal(t, 2, added)
	require.Equal(t, []string{"a", "", "b", ""}, ids(merged))
	require.Equal(t, "A", merged[0].About.Name)
}

func TestLoadMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	records, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestLoadMalformedFileIsTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"about": `), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	store := NewJSONStore(path, zap.New(core))

	records, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, 1, logs.Len())

	result, err := store.Persist([]*domain.AthleteRecord{record("a", "A")})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
}

func TestPersistKeepsUndecodableEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"about":{"id":"old-1","Age":37}},{"about":{"id":"old-2"}},null]`), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	store := NewJSONStore(path, zap.New(core))

	result, err := store.Persist([]*domain.AthleteRecord{record("old-1", "Dup"), record("new", "New")})
	require.NoError(t, err)
	require.Equal(t, PersistResult{Prior: 2, Added: 1, Total: 3}, result)
	require.Equal(t, 1, logs.FilterField(zap.String("athlete_id", "old-1")).Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Age": 37`)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"old-1", "old-2", "new"}, ids(loaded))
	require.NotEmpty(t, loaded[0].Raw)
	require.Empty(t, loaded[1].Raw)
}

func TestSaveFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.json")
	store := NewJSONStore(path, zap.NewNop())

	require.NoError(t, store.Save(nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", strings.TrimSpace(string(data)))

	require.NoError(t, store.Save([]*domain.AthleteRecord{record("a", "A")}))
	data, err = os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	require.True(t, strings.HasPrefix(content, "[\n    {\n        \"about\": {"))
	require.Contains(t, content, "São Paulo, Brazil")
	require.Contains(t, content, `"Takedowns & Reversals": "<1>"`)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestSaveFailureIsStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewJSONStore(filepath.Join(blocker, "athletes.json"), zap.NewNop())
	err := store.Save([]*domain.AthleteRecord{record("a", "A")})
	require.Error(t, err)

	var storageErr *errors.StorageError
	require.True(t, stderrors.As(err, &storageErr))
	require.Equal(t, "save", storageErr.Operation)
}
