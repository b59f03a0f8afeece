package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dpavel/songsync/internal/client/gateway"
	"github.com/dpavel/songsync/internal/client/localstore"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts the user for credentials and tries to authenticate.
//
// The method first attempts an online login and caches the issued token in
// the local store. If the server is unavailable, it falls back to the token
// cached by a previous online login, which is enough to read and edit
// records offline. On success a new sync session is started and Mode is
// set accordingly:
//   - ModeOnline if online login succeeds,
//   - ModeOffline if only the cached token is available,
//   - ModeDisabled if both fail.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, err := a.gw.Login(ctx, userName, string(password))
	if err != nil {
		if !errors.Is(err, gateway.ErrUnavailable) {
			a.logger.Warn(ctx, "login unsuccessful", "error", err)
			a.setMode(ModeDisabled)
			return err
		}

		a.logger.Info(ctx, "server unavailable, trying cached session")
		cached, gerr := a.store.Get(ctx, localstore.TokenKey)
		if gerr != nil || cached == nil {
			a.logger.Warn(ctx, "no cached session available")
			a.setMode(ModeDisabled)
			return err
		}
		token = string(cached)
		a.setMode(ModeOffline)
	} else {
		if serr := a.store.Set(ctx, localstore.TokenKey, []byte(token)); serr != nil {
			a.logger.Warn(ctx, "cannot cache session token", "error", serr)
		}
		a.setMode(ModeOnline)
	}

	a.userName = userName
	a.startSession(ctx, token)

	fmt.Println("Success!")
	return nil
}

// Logout ends the sync session and drops the cached token.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Remove(ctx, localstore.TokenKey); err != nil {
		return err
	}
	a.endSession()
	a.userName = ""
	a.setMode(ModeDisabled)
	return nil
}
