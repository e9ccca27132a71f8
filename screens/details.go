package screens

import (
	"context"
	"errors"

	"tripwise/models"
	"tripwise/places"
	"tripwise/store"
)

const (
	MessageMissingPlace       = "Missing place data"
	MessageDeleted            = "Deleted"
	MessagePermissionRequired = "Location permission is required to open the map"
)

// ErrPermissionDenied is returned by OpenMap when the user refuses the location permission
var ErrPermissionDenied = errors.New("location permission denied")

type DetailsState struct {
	Status Status
	Params Params
	Place  *models.Place
	Error  string
}

// Details shows one place live
type Details struct {
	screen[DetailsState]
	repo       *places.Repository
	nav        Navigator
	permission PermissionGate
	notifier   Notifier

	generation int
	sub        *store.Subscription[*models.Place]
}

func NewDetails(repo *places.Repository, nav Navigator, permission PermissionGate, notifier Notifier) *Details {
	if notifier == nil {
		notifier = discard{}
	}
	return &Details{repo: repo, nav: nav, permission: permission, notifier: notifier}
}

// Mount starts listening to the place. Missing identifiers are an error right away.
func (d *Details) Mount(params Params) {
	d.mutex.Lock()
	d.releaseLocked()
	d.generation++
	generation := d.generation
	d.state = DetailsState{Status: StatusLoading, Params: params}
	if params.Blank() {
		d.state.Status = StatusError
		d.state.Error = MessageMissingPlace
	}
	if d.render != nil {
		d.render(d.state)
	}
	if params.Blank() {
		d.mutex.Unlock()
		return
	}
	d.sub = d.repo.ObservePlace(params.UserID, params.PlaceID)
	updates := d.sub.Start()
	d.mutex.Unlock()

	go func() {
		for u := range updates {
			current := true
			d.update(func(st *DetailsState) {
				if generation != d.generation {
					current = false
					return
				}
				switch {
				case u.Err != nil:
					st.Status = StatusError
					st.Error = messageOf(u.Err, "Failed to load place")
				case u.Value == nil:
					st.Status = StatusNotFound
					st.Place = nil
				default:
					st.Status = StatusReady
					st.Place = u.Value
				}
			})
			if !current {
				return
			}
		}
	}()
}

// Unmount releases the live listener
func (d *Details) Unmount() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.releaseLocked()
	d.generation++
}

func (d *Details) releaseLocked() {
	if d.sub != nil {
		d.sub.Cancel()
		d.sub = nil
	}
}

func (d *Details) ToggleFavorite(ctx context.Context) error {
	st := d.State()
	if st.Place == nil {
		return errors.New("place not loaded")
	}
	err := d.repo.SetFavorite(ctx, st.Params.UserID, st.Params.PlaceID, !st.Place.IsFavorite)
	if err != nil {
		d.notifier.Notify(messageOf(err, "Failed"))
	}
	return err
}

// Delete removes the place and goes back on success; on failure the screen stays
func (d *Details) Delete(ctx context.Context) error {
	st := d.State()
	if st.Params.Blank() {
		return errors.New(MessageMissingPlace)
	}
	if err := d.repo.Delete(ctx, st.Params.UserID, st.Params.PlaceID); err != nil {
		d.notifier.Notify(messageOf(err, "Delete failed"))
		return err
	}
	d.notifier.Notify(MessageDeleted)
	d.Unmount()
	return d.nav.Back()
}

// OpenMap navigates to the map once the location permission is granted
func (d *Details) OpenMap(ctx context.Context) error {
	st := d.State()
	granted := d.permission.Granted()
	if !granted {
		var err error
		granted, err = d.permission.Request(ctx)
		if err != nil {
			d.notifier.Notify(messageOf(err, MessagePermissionRequired))
			return err
		}
	}
	if !granted {
		d.notifier.Notify(MessagePermissionRequired)
		return ErrPermissionDenied
	}
	return d.nav.Navigate(RouteMap, st.Params, false)
}
