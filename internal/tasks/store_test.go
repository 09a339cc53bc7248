package tasks

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.toml")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func validTask(name string) Task {
	return Task{
		Name:        name,
		ShareLink:   "https://cloud.189.cn/t/AbCd1234",
		TargetDirID: "8042",
		Cron:        "0 3 * * *",
		Enabled:     true,
	}
}

func TestStoreAddGetList(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Add(validTask("weekly-show")))
	require.NoError(t, store.Add(validTask("daily-news")))

	got, err := store.Get("weekly-show")
	require.NoError(t, err)
	assert.Equal(t, "8042", got.TargetDirID)
	assert.False(t, got.CreatedAt.IsZero())

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "weekly-show", list[0].Name)
}

func TestStoreRejectsDuplicateName(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Add(validTask("weekly-show")))
	assert.ErrorIs(t, store.Add(validTask("weekly-show")), ErrTaskExists)
}

func TestStoreRejectsInvalidTask(t *testing.T) {
	store, _ := newTestStore(t)

	bad := validTask("")
	assert.Error(t, store.Add(bad))

	bad = validTask("ok")
	bad.ShareLink = "not a link!!"
	assert.Error(t, store.Add(bad))

	bad = validTask("ok")
	bad.NameFilters = []string{"["}
	assert.Error(t, store.Add(bad))

	bad = validTask("ok")
	bad.RenameTemplate = "{bogus}"
	assert.Error(t, store.Add(bad))
}

func TestStoreUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(validTask("weekly-show")))

	updated := validTask("weekly-show")
	updated.TargetDirID = "9000"
	updated.RenameTemplate = "VIDEO_SERIES"
	require.NoError(t, store.Update("weekly-show", updated))

	got, err := store.Get("weekly-show")
	require.NoError(t, err)
	assert.Equal(t, "9000", got.TargetDirID)
	assert.Equal(t, "VIDEO_SERIES", got.RenameTemplate)

	assert.ErrorIs(t, store.Update("missing", validTask("missing")), ErrTaskNotFound)

	// Renaming onto an existing task is rejected
	require.NoError(t, store.Add(validTask("daily-news")))
	clash := validTask("daily-news")
	assert.ErrorIs(t, store.Update("weekly-show", clash), ErrTaskExists)
}

func TestStoreDeleteAndEnable(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Add(validTask("weekly-show")))

	require.NoError(t, store.SetEnabled("weekly-show", false))
	got, err := store.Get("weekly-show")
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	require.NoError(t, store.Delete("weekly-show"))
	_, err = store.Get("weekly-show")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, store.Delete("weekly-show"), ErrTaskNotFound)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)

	task := validTask("weekly-show")
	task.NameFilters = []string{`\.mp4$`}
	task.IgnoreExtension = true
	require.NoError(t, store.Add(task))

	reopened, err := NewStore(path)
	require.NoError(t, err)

	got, err := reopened.Get("weekly-show")
	require.NoError(t, err)
	assert.Equal(t, []string{`\.mp4$`}, got.NameFilters)
	assert.True(t, got.IgnoreExtension)
	assert.Equal(t, "0 3 * * *", got.Cron)
}
