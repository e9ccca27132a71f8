package screens

import (
	"context"

	"tripwise/models"
	"tripwise/places"

	"github.com/rs/zerolog/log"
)

const UnknownAddress = "Unknown"

type MapState struct {
	Status  Status
	Place   *models.Place
	Address string
}

// Map shows where a place is. It reads the place once, no live updates.
type Map struct {
	screen[MapState]
	repo *places.Repository
	nav  Navigator
}

func NewMap(repo *places.Repository, nav Navigator) *Map {
	return &Map{repo: repo, nav: nav}
}

// Load fetches the place; a missing place or a failed read both show an unknown address
func (m *Map) Load(ctx context.Context, params Params) {
	m.update(func(st *MapState) {
		*st = MapState{Status: StatusLoading}
	})
	var place *models.Place
	if !params.Blank() {
		var err error
		place, err = m.repo.Get(ctx, params.UserID, params.PlaceID)
		if err != nil {
			log.Debug().Err(err).Str("place", params.PlaceID).Msg("map place lookup failed")
		}
	}
	m.update(func(st *MapState) {
		st.Status = StatusReady
		st.Place = place
		st.Address = UnknownAddress
		if place != nil {
			st.Address = place.Address
		}
	})
}

func (m *Map) Back() error {
	return m.nav.Back()
}
