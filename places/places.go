// Package places keeps a user's places in the document store.
//
// Layout per user:
//
//	users/{uid}/meta/seed       {done: true}
//	users/{uid}/places/{id}     models.Place
package places

import (
	"context"
	"errors"
	"fmt"

	"tripwise/models"
	"tripwise/store"

	"github.com/rs/zerolog/log"
)

const (
	OrderKey      = "name"
	FavoriteField = "isFavorite"
)

func CollectionPath(userID string) string {
	return store.Join("users", userID, "places")
}

func DocumentPath(userID, placeID string) string {
	return store.Join("users", userID, "places", placeID)
}

func SeedMarkerPath(userID string) string {
	return store.Join("users", userID, "meta", "seed")
}

// SamplePlaces are written for every new user. The ids are fixed so seeding twice writes the same documents.
func SamplePlaces() []models.Place {
	return []models.Place{
		{ID: "1", Name: "Riverside Museum", Category: models.CategoryAttractions, DistanceMeters: 450, Rating: 4.6, Address: "12 River St, City"},
		{ID: "2", Name: "Skyline Viewpoint", Category: models.CategoryAttractions, DistanceMeters: 900, Rating: 4.8, Address: "Hilltop Rd, City"},
		{ID: "3", Name: "Blue Harbor Hotel", Category: models.CategoryHotels, DistanceMeters: 1200, Rating: 4.3, Address: "45 Ocean Ave, City"},
		{ID: "4", Name: "Bella Italia", Category: models.CategoryRestaurants, DistanceMeters: 300, Rating: 4.5, Address: "22 Market Ln, City"},
		{ID: "5", Name: "City Art Gallery", Category: models.CategoryAttractions, DistanceMeters: 1500, Rating: 4.7, Address: "Museum Sq, City"},
		{ID: "6", Name: "Maple Inn", Category: models.CategoryHotels, DistanceMeters: 850, Rating: 4.1, Address: "78 Park Rd, City"},
	}
}

// Repository is the typed view of the store the screens use
type Repository struct {
	store store.Store
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Seed writes the sample places and the seed marker in one batch, unless the marker says it was done already.
// It returns true when the batch was written.
func (r *Repository) Seed(ctx context.Context, userID string) (bool, error) {
	marker, err := r.store.GetDocument(ctx, SeedMarkerPath(userID))
	if err != nil {
		return false, err
	}
	if marker.Bool("done") {
		return false, nil
	}
	writes := []store.Write{}
	for _, p := range SamplePlaces() {
		data, err := p.ToData()
		if err != nil {
			return false, err
		}
		writes = append(writes, store.Set(DocumentPath(userID, p.ID), data))
	}
	writes = append(writes, store.Set(SeedMarkerPath(userID), map[string]any{"done": true}))
	if err = r.store.RunAtomicBatch(ctx, writes); err != nil {
		return false, err
	}
	log.Info().Str("user", userID).Int("places", len(writes)-1).Msg("sample places seeded")
	return true, nil
}

func decode(doc *store.Document) (models.Place, error) {
	p := models.Place{}
	if err := doc.DataTo(&p); err != nil {
		return models.Place{}, err
	}
	if err := p.Check(); err != nil {
		return models.Place{}, err
	}
	p.ID = doc.ID
	return p, nil
}

// decodeList drops documents that are not valid places, the rest of the list is still shown
func decodeList(docs []store.Document) ([]models.Place, error) {
	result := make([]models.Place, 0, len(docs))
	for i := range docs {
		p, err := decode(&docs[i])
		if err != nil {
			log.Warn().Err(err).Str("path", docs[i].Path).Msg("skipping undecodable place")
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func decodeOne(doc *store.Document) (*models.Place, error) {
	if doc == nil {
		return nil, nil
	}
	p, err := decode(doc)
	if err != nil {
		return nil, fmt.Errorf("place %s: %w", doc.ID, err)
	}
	return &p, nil
}

// Observe delivers the user's places ordered by name
func (r *Repository) Observe(userID string) *store.Subscription[[]models.Place] {
	return store.Map(r.store.ObserveCollection(CollectionPath(userID), OrderKey), decodeList)
}

// ObservePlace delivers one place, nil when it does not exist (any more)
func (r *Repository) ObservePlace(userID, placeID string) *store.Subscription[*models.Place] {
	return store.Map(r.store.ObserveDocument(DocumentPath(userID, placeID)), decodeOne)
}

// Get is a one-shot read, nil when the place does not exist
func (r *Repository) Get(ctx context.Context, userID, placeID string) (*models.Place, error) {
	doc, err := r.store.GetDocument(ctx, DocumentPath(userID, placeID))
	if err != nil {
		return nil, err
	}
	return decodeOne(doc)
}

// Create stores a new place under a store generated id and returns it
func (r *Repository) Create(ctx context.Context, userID string, build func(id string) models.Place) (models.Place, error) {
	p := build(r.store.NewDocumentID())
	if p.ID == "" {
		return p, errors.New("place has no id")
	}
	data, err := p.ToData()
	if err != nil {
		return p, err
	}
	return p, r.store.CreateDocument(ctx, DocumentPath(userID, p.ID), data)
}

func (r *Repository) SetFavorite(ctx context.Context, userID, placeID string, favorite bool) error {
	return r.store.UpdateField(ctx, DocumentPath(userID, placeID), FavoriteField, favorite)
}

func (r *Repository) Delete(ctx context.Context, userID, placeID string) error {
	return r.store.DeleteDocument(ctx, DocumentPath(userID, placeID))
}
