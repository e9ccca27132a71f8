// Package client puts the screens together on top of a tripwise server.
package client

import (
	"context"
	"sync"
	"sync/atomic"

	"tripwise/config"
	"tripwise/places"
	"tripwise/remote"
	"tripwise/screens"

	"github.com/rs/zerolog/log"
)

// App owns one controller per screen, all sharing the same navigation stack
type App struct {
	Remote  *remote.Client
	Stack   *screens.Stack
	Splash  *screens.Splash
	Login   *screens.Login
	SignUp  *screens.SignUp
	Home    *screens.Home
	Details *screens.Details
	Map     *screens.Map

	// Permission guards the map screen
	Permission screens.PermissionGate

	mutex   sync.Mutex
	ctx     context.Context
	current screens.Route
}

// New connects to the server at serverURL. A nil permission gate grants the
// location permission as soon as it is requested, a nil notifier drops messages.
func New(serverURL string, permission screens.PermissionGate, notifier screens.Notifier) (*App, error) {
	client, err := remote.New(serverURL)
	if err != nil {
		return nil, err
	}
	if permission == nil {
		permission = &GrantOnRequest{}
	}
	repo := places.NewRepository(client)
	stack := screens.NewStack(screens.RouteSplash)
	a := &App{
		Remote:     client,
		Stack:      stack,
		Splash:     screens.NewSplash(stack, config.SplashDelay()),
		Login:      screens.NewLogin(client, stack),
		SignUp:     screens.NewSignUp(client, stack, notifier),
		Home:       screens.NewHome(repo, client, stack, notifier),
		Details:    screens.NewDetails(repo, stack, permission, notifier),
		Map:        screens.NewMap(repo, stack),
		Permission: permission,
		ctx:        context.Background(),
		current:    screens.RouteSplash,
	}
	stack.OnChange = a.show
	return a, nil
}

// Start picks up an existing session and runs the splash screen. With a session
// the login screen is skipped; an unreachable server only means signing in again.
func (a *App) Start(ctx context.Context) error {
	a.mutex.Lock()
	a.ctx = ctx
	a.mutex.Unlock()

	restored, err := a.Remote.Restore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session restore failed")
	}
	if err = a.Splash.Run(ctx); err != nil {
		return err
	}
	if !restored {
		return nil
	}
	userID, _ := a.Remote.CurrentUserID()
	return a.Stack.Navigate(screens.RouteHome, screens.Params{UserID: userID}, true)
}

// show mounts the screen that became current and releases the ones left behind
func (a *App) show(entry screens.Entry) {
	a.mutex.Lock()
	ctx, from := a.ctx, a.current
	a.current = entry.Route
	a.mutex.Unlock()

	if from == screens.RouteDetails && entry.Route != screens.RouteMap {
		a.Details.Unmount()
	}
	if from == screens.RouteHome && entry.Route == screens.RouteLogin {
		a.Home.Unmount()
	}
	switch entry.Route {
	case screens.RouteHome:
		a.Home.Mount(ctx)
	case screens.RouteDetails:
		if from != screens.RouteMap {
			a.Details.Mount(entry.Params)
		}
	case screens.RouteMap:
		go a.Map.Load(ctx, entry.Params)
	}
}

// GrantOnRequest is the permission gate for clients without a system prompt
type GrantOnRequest struct {
	granted atomic.Bool
}

func (g *GrantOnRequest) Granted() bool {
	return g.granted.Load()
}

func (g *GrantOnRequest) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.granted.Store(true)
	return true, nil
}
