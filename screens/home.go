package screens

import (
	"context"
	"errors"

	"tripwise/auth"
	"tripwise/forms"
	"tripwise/models"
	"tripwise/places"
	"tripwise/store"
)

// GuestUserID is used for the places namespace when nobody is signed in
const GuestUserID = "guest"

type HomeState struct {
	Status   Status
	UserID   string
	Places   []models.Place // as delivered, ordered by name
	Visible  []models.Place // Places after the search and category filters
	Query    string
	Category models.Category // CategoryNone when not filtering
	Error    string
	// AddDialog is non-nil while the "Add a Place" dialog is open
	AddDialog *forms.NewPlace
	AddError  string
}

// Home lists the user's places
type Home struct {
	screen[HomeState]
	repo     *places.Repository
	auth     auth.Provider
	nav      Navigator
	notifier Notifier

	// generation changes on every (re)mount and unmount, updates from older ones are dropped
	generation int
	sub        *store.Subscription[[]models.Place]
	cancel     context.CancelFunc
}

func NewHome(repo *places.Repository, provider auth.Provider, nav Navigator, notifier Notifier) *Home {
	if notifier == nil {
		notifier = discard{}
	}
	return &Home{repo: repo, auth: provider, nav: nav, notifier: notifier}
}

func (h *Home) userID() string {
	if id, ok := h.auth.CurrentUserID(); ok {
		return id
	}
	return GuestUserID
}

// Mount seeds the sample places if needed and starts listening to the place list.
// Mounting again for the same user is a no-op; for another user the old listener is released first.
func (h *Home) Mount(ctx context.Context) {
	userID := h.userID()
	h.mutex.Lock()
	if h.cancel != nil && h.state.UserID == userID {
		h.mutex.Unlock()
		return
	}
	h.releaseLocked()
	h.generation++
	generation := h.generation
	ctx, h.cancel = context.WithCancel(ctx)
	h.state.Status = StatusLoading
	h.state.UserID = userID
	h.state.Places = nil
	h.state.Visible = nil
	h.state.Error = ""
	if h.render != nil {
		h.render(h.state)
	}
	h.mutex.Unlock()

	go h.load(ctx, generation, userID)
}

// Unmount releases the live listener
func (h *Home) Unmount() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.releaseLocked()
	h.generation++
}

func (h *Home) releaseLocked() {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.sub != nil {
		h.sub.Cancel()
		h.sub = nil
	}
}

// apply runs fn only if the update belongs to the current mount
func (h *Home) apply(generation int, fn func(*HomeState)) bool {
	current := true
	h.update(func(st *HomeState) {
		if generation != h.generation {
			current = false
			return
		}
		fn(st)
	})
	return current
}

func (h *Home) load(ctx context.Context, generation int, userID string) {
	if _, err := h.repo.Seed(ctx, userID); err != nil {
		if ctx.Err() != nil {
			return
		}
		h.apply(generation, func(st *HomeState) {
			st.Status = StatusError
			st.Error = messageOf(err, "Something went wrong")
		})
		return
	}

	sub := h.repo.Observe(userID)
	h.mutex.Lock()
	if generation != h.generation {
		h.mutex.Unlock()
		sub.Cancel()
		return
	}
	h.sub = sub
	h.mutex.Unlock()

	for u := range sub.Start() {
		if u.Err != nil {
			h.apply(generation, func(st *HomeState) {
				st.Status = StatusError
				st.Error = messageOf(u.Err, "Failed to load places")
			})
			return
		}
		list := u.Value
		if !h.apply(generation, func(st *HomeState) {
			st.Status = StatusReady
			st.Places = list
			st.Visible = places.Filter(list, st.Query, st.Category)
		}) {
			return
		}
	}
}

func (h *Home) SetQuery(query string) {
	h.update(func(st *HomeState) {
		st.Query = query
		st.Visible = places.Filter(st.Places, st.Query, st.Category)
	})
}

// SelectCategory filters by c, or clears the filter if c is already selected
func (h *Home) SelectCategory(c models.Category) {
	h.update(func(st *HomeState) {
		st.Category = places.ToggleCategory(st.Category, c)
		st.Visible = places.Filter(st.Places, st.Query, st.Category)
	})
}

func (h *Home) find(placeID string) (models.Place, string, bool) {
	st := h.State()
	for _, p := range st.Places {
		if p.ID == placeID {
			return p, st.UserID, true
		}
	}
	return models.Place{}, st.UserID, false
}

// ToggleFavorite flips the flag; the list catches up through the live listener
func (h *Home) ToggleFavorite(ctx context.Context, placeID string) error {
	p, userID, ok := h.find(placeID)
	if !ok {
		return errors.New("unknown place " + placeID)
	}
	err := h.repo.SetFavorite(ctx, userID, placeID, !p.IsFavorite)
	if err != nil {
		h.notifier.Notify(messageOf(err, "Failed"))
	}
	return err
}

func (h *Home) OpenDetails(placeID string) error {
	return h.nav.Navigate(RouteDetails, Params{UserID: h.State().UserID, PlaceID: placeID}, false)
}

// OpenAddDialog shows the dialog with its default values
func (h *Home) OpenAddDialog() {
	h.update(func(st *HomeState) {
		form := forms.NewPlaceDefaults()
		st.AddDialog = &form
		st.AddError = ""
	})
}

func (h *Home) DismissAddDialog() {
	h.update(func(st *HomeState) {
		st.AddDialog = nil
		st.AddError = ""
	})
}

// AddPlace validates the dialog and stores the new place. An invalid form keeps the dialog open.
func (h *Home) AddPlace(ctx context.Context, form forms.NewPlace) (models.Place, error) {
	if err := form.Validate(); err != nil {
		h.update(func(st *HomeState) {
			st.AddDialog = &form
			st.AddError = err.Error()
		})
		return models.Place{}, err
	}
	h.DismissAddDialog()
	p, err := h.repo.Create(ctx, h.State().UserID, form.Place)
	if err != nil {
		h.notifier.Notify(messageOf(err, "Failed"))
	}
	return p, err
}

// Logout signs out and returns to the login screen
func (h *Home) Logout(ctx context.Context) error {
	if err := h.auth.SignOut(ctx); err != nil {
		h.notifier.Notify(messageOf(err, "Failed"))
		return err
	}
	h.Unmount()
	return h.nav.Navigate(RouteLogin, Params{}, true)
}
