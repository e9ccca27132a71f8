package places

import (
	"context"
	"sync"
	"testing"
	"time"

	"tripwise/db"
	"tripwise/models"
	"tripwise/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, *store.GormStore) {
	t.Helper()
	gdb, err := db.Open("", ":memory:")
	require.NoError(t, err)
	s, err := store.NewGormStore(gdb)
	require.NoError(t, err)
	return NewRepository(s), s
}

func names(list []models.Place) []string {
	result := []string{}
	for _, p := range list {
		result = append(result, p.Name)
	}
	return result
}

func TestSeedOnce(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepository(t)

	seeded, err := repo.Seed(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, seeded)

	require.NoError(t, repo.SetFavorite(ctx, "u1", "4", true))
	seeded, err = repo.Seed(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, seeded, "marker must stop a second seeding")

	docs, err := s.ListCollection(ctx, CollectionPath("u1"), OrderKey)
	require.NoError(t, err)
	assert.Len(t, docs, 6)
	p, err := repo.Get(ctx, "u1", "4")
	require.NoError(t, err)
	assert.True(t, p.IsFavorite)
}

func TestSeedConcurrentFirstLoads(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepository(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Seed(ctx, "u1")
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	docs, err := s.ListCollection(ctx, CollectionPath("u1"), OrderKey)
	require.NoError(t, err)
	assert.Len(t, docs, len(SamplePlaces()))
}

func TestSeedScopedPerUser(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepository(t)
	_, err := repo.Seed(ctx, "u1")
	require.NoError(t, err)

	docs, err := s.ListCollection(ctx, CollectionPath("u2"), OrderKey)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestObserveOrderedByName(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepository(t)
	_, err := repo.Seed(ctx, "u1")
	require.NoError(t, err)
	// a document with an unknown category is skipped, not fatal
	require.NoError(t, s.CreateDocument(ctx, DocumentPath("u1", "bad"), map[string]any{"name": "Aquarium", "category": "Beaches"}))

	sub := repo.Observe("u1")
	defer sub.Cancel()
	u := <-sub.Start()
	require.Nil(t, u.Err)
	assert.Equal(t, []string{
		"Bella Italia", "Blue Harbor Hotel", "City Art Gallery", "Maple Inn", "Riverside Museum", "Skyline Viewpoint",
	}, names(u.Value))
}

func TestCreateToggleDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	sub := repo.Observe("u1")
	defer sub.Cancel()
	updates := sub.Start()
	assert.Empty(t, (<-updates).Value)

	p, err := repo.Create(ctx, "u1", func(id string) models.Place {
		return models.Place{ID: id, Name: "Pier", Category: models.CategoryAttractions, Address: "1 Main St", Rating: 4}
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	list := (<-updates).Value
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	require.NoError(t, repo.SetFavorite(ctx, "u1", p.ID, true))
	assert.True(t, (<-updates).Value[0].IsFavorite)

	require.NoError(t, repo.Delete(ctx, "u1", p.ID))
	assert.Empty(t, (<-updates).Value)
}

func TestObservePlace(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepository(t)
	_, err := repo.Seed(ctx, "u1")
	require.NoError(t, err)

	sub := repo.ObservePlace("u1", "3")
	defer sub.Cancel()
	updates := sub.Start()
	u := <-updates
	require.Nil(t, u.Err)
	assert.Equal(t, "Blue Harbor Hotel", u.Value.Name)

	require.NoError(t, s.UpdateField(ctx, DocumentPath("u1", "3"), "category", "Spaceports"))
	select {
	case u = <-updates:
		require.NotNil(t, u.Err)
		assert.Contains(t, u.Err.Error(), "Spaceports")
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
	}
}

func TestUndecodablePlaces(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepository(t)
	require.NoError(t, s.CreateDocument(ctx, DocumentPath("u1", "a"), map[string]any{"name": "Harbor Pier", "category": "Attractions"}))
	require.NoError(t, s.CreateDocument(ctx, DocumentPath("u1", "b"), map[string]any{"name": "No Category"}))
	require.NoError(t, s.CreateDocument(ctx, DocumentPath("u1", "c"), map[string]any{"name": "Bad Rating", "category": "Hotels", "rating": "high"}))

	sub := repo.Observe("u1")
	defer sub.Cancel()
	u := <-sub.Start()
	require.Nil(t, u.Err)
	require.Len(t, u.Value, 1)
	assert.Equal(t, "a", u.Value[0].ID)

	tests := []struct {
		id      string
		message string
	}{
		{"b", models.ErrMissingCategory.Error()},
		{"c", "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := repo.Get(ctx, "u1", tt.id)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFilter(t *testing.T) {
	all := SamplePlaces()
	tests := []struct {
		name     string
		query    string
		category models.Category
		want     []string
	}{
		{"everything", "", models.CategoryNone, names(all)},
		{"blank query", "   ", models.CategoryNone, names(all)},
		{"search", "Bella", models.CategoryNone, []string{"Bella Italia"}},
		{"search ignores case", "bELLA", models.CategoryNone, []string{"Bella Italia"}},
		{"hotels", "", models.CategoryHotels, []string{"Blue Harbor Hotel", "Maple Inn"}},
		{"search within category", "Bella", models.CategoryHotels, []string{}},
		{"substring", "city", models.CategoryAttractions, []string{"City Art Gallery"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(all, tt.query, tt.category)
			assert.Equal(t, tt.want, names(got))
			assert.Equal(t, got, Filter(got, tt.query, tt.category), "filtering is idempotent")
		})
	}
}

func TestToggleCategory(t *testing.T) {
	c := ToggleCategory(models.CategoryNone, models.CategoryHotels)
	assert.Equal(t, models.CategoryHotels, c)
	c = ToggleCategory(c, models.CategoryRestaurants)
	assert.Equal(t, models.CategoryRestaurants, c)
	c = ToggleCategory(c, models.CategoryRestaurants)
	assert.Equal(t, models.CategoryNone, c)
}
