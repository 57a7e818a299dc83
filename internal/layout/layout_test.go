package layout

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/models"
)

func TestBuiltins(t *testing.T) {
	presets := Builtins()
	ids := make([]string, 0, len(presets))
	for _, p := range presets {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"default", "virtual-tournament", "in-person-competition", "achievement-certificate"}, ids)

	for _, p := range presets {
		if p.ID != "virtual-tournament" {
			continue
		}
		patch := element.PatchFromFields(p.ElementStates[models.ElementName])
		require.NotNil(t, patch.FontSize)
		assert.Equal(t, 44.0, *patch.FontSize)
		require.NotNil(t, patch.TextTransform)
		assert.Equal(t, models.TransformUppercase, *patch.TextTransform)
		assert.Equal(t, []string{"Division", "Placement"}, p.ExpectedColumns)
	}
}

func TestCaptureRoundTrip(t *testing.T) {
	states := map[models.ElementType]models.ElementState{
		models.ElementDate: {XPercent: 12.5, YPercent: 80, FontSize: 22, Theme: "usa-archery", Color: "red", IsVisible: true, TextTransform: models.TransformLowercase},
	}
	p := Capture(states, "My Layout!", "mine", "usa-archery")
	assert.Equal(t, "my-layout", p.ID)

	patch := element.PatchFromFields(p.ElementStates[models.ElementDate])
	assert.Equal(t, 12.5, *patch.XPercent)
	assert.Equal(t, 22.0, *patch.FontSize)
	assert.Equal(t, "red", *patch.Color)
	assert.Equal(t, models.TransformLowercase, *patch.TextTransform)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPresetNotFound)

	p := Capture(map[models.ElementType]models.ElementState{models.ElementName: {FontSize: 30, IsVisible: true}}, "Club Night", "", "")
	require.NoError(t, store.Save(ctx, p))

	yamlDoc := "name: Hand Made\nelementStates:\n  date-element:\n    xPercent: 33\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hand.yaml"), []byte(yamlDoc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := store.Get(ctx, "hand")
	require.NoError(t, err)
	assert.Equal(t, "Hand Made", got.Name)
	assert.Equal(t, 33.0, *element.PatchFromFields(got.ElementStates[models.ElementDate]).XPercent)

	got, err = store.Get(ctx, "club-night")
	require.NoError(t, err)
	assert.Equal(t, 30.0, *element.PatchFromFields(got.ElementStates[models.ElementName]).FontSize)

	require.NoError(t, store.Delete(ctx, "club-night"))
	assert.ErrorIs(t, store.Delete(ctx, "club-night"), ErrPresetNotFound)
}

// fakeHash is an in-memory HashClient.
type fakeHash struct {
	mu     sync.Mutex
	fields map[string]map[string]string
}

func newFakeHash() *fakeHash {
	return &fakeHash{fields: make(map[string]map[string]string)}
}

func (f *fakeHash) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.fields[key]
	if !ok {
		h = make(map[string]string)
		f.fields[key] = h
	}
	var n int64
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = values[i+1].(string)
		n++
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeHash) HGet(_ context.Context, key, field string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.fields[key][field]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeHash) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.fields[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *fakeHash) HDel(_ context.Context, key string, fields ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, field := range fields {
		if _, ok := f.fields[key][field]; ok {
			delete(f.fields[key], field)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := newFakeHash()
	store := NewRedisStore(client, "certstudio:")

	p := Capture(map[models.ElementType]models.ElementState{models.ElementName: {FontSize: 50}}, "Gala", "evening", "usa-archery")
	require.NoError(t, store.Save(ctx, p))
	assert.Contains(t, client.fields, "certstudio:presets")

	got, err := store.Get(ctx, "gala")
	require.NoError(t, err)
	assert.Equal(t, "evening", got.Description)

	client.fields["certstudio:presets"]["bad"] = "not json"
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrPresetNotFound)
	require.NoError(t, store.Delete(ctx, "gala"))
	assert.ErrorIs(t, store.Delete(ctx, "gala"), ErrPresetNotFound)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newFakeHash(), "")
	c := NewCatalog(store)

	def, err := c.Resolve(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, DefaultPresetID, def.ID)

	custom := &models.LayoutPreset{ID: DefaultPresetID, Name: "Shadow"}
	require.NoError(t, c.Save(ctx, custom))
	def, err = c.Get(ctx, DefaultPresetID)
	require.NoError(t, err)
	assert.Equal(t, "Shadow", def.Name)

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, "achievement-certificate", list[0].ID)

	_, err = c.Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, ErrPresetNotFound)

	bare := NewCatalog(nil)
	assert.Error(t, bare.Save(ctx, custom))
}
