package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/attendkeeper/internal/client/client"
)

func (a *App) readCredentials() (string, []byte, error) {
	userName, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return "", nil, err
	}
	if userName == "" {
		return "", nil, errors.New("user name is required")
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.readCredentials()
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	defer wipe(password)

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		if errors.Is(err, client.ErrAlreadyExists) {
			printlnFn("User already exists")
		} else {
			printlnFn("Registration failed:", err)
		}
		return err
	}

	printlnFn("Registered. You can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.readCredentials()
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	defer wipe(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		printlnFn("Login unsuccessful:", err)
		return err
	}

	a.userName = userName
	printlnFn(fmt.Sprintf("Logged in as %s", userName))
	return nil
}

func (a *App) Logout(context.Context) error {
	a.api.Logout()
	a.userName = ""
	printlnFn("Logged out")
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		printlnFn("Server unreachable:", err)
		return err
	}
	a.setMode(ModeOnline)
	printlnFn("Server is up")
	return nil
}
