package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/facultyreview/internal/client/client"
	"github.com/dmitrijs2005/facultyreview/internal/cryptox"
)

// SignUp sends the registration and, if the user has the code at hand,
// verifies it right away.
func (a *App) SignUp(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "-Enter your name", a.out)
	if err != nil {
		return a.report(err)
	}
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer cryptox.WipeByteArray(password)

	msg, err := a.api.SendOTP(ctx, name, email, string(password))
	if err != nil {
		return a.report(err)
	}
	a.printf("%s\n", msg)
	a.pendingEmail = email

	code, err := GetSimpleText(a.reader, "-Enter the code from the email (empty to verify later)", a.out)
	if err != nil || code == "" {
		a.printf("Run 'verify' when you have the code.\n")
		return nil
	}
	return a.verify(ctx, email, code)
}

// Verify completes a registration started earlier.
func (a *App) Verify(ctx context.Context) error {
	email := a.pendingEmail
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "-Enter email", a.out); err != nil {
			return a.report(err)
		}
	}
	code, err := GetSimpleText(a.reader, "-Enter the code from the email", a.out)
	if err != nil {
		return a.report(err)
	}
	return a.verify(ctx, email, code)
}

func (a *App) verify(ctx context.Context, email, code string) error {
	if _, err := a.api.VerifyOTP(ctx, email, code); err != nil {
		return a.report(err)
	}
	a.pendingEmail = ""
	a.printf("Account created successfully! You can now sign in.\n")
	return nil
}

func (a *App) SignIn(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer cryptox.WipeByteArray(password)

	user, token, err := a.api.SignIn(ctx, email, string(password))
	if errors.Is(err, client.ErrUnauthorized) {
		a.printf("Invalid email or password.\n")
		return err
	}
	if err != nil {
		return a.report(err)
	}
	if err := a.store.Save(token); err != nil {
		a.printf("warning: session will not be remembered: %v\n", err)
	}
	if user != nil {
		a.userName = user.Name
	}
	a.printf("Login successful. Welcome, %s!\n", a.userName)
	return nil
}

// Logout forgets the local session even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.userName = ""
	if cerr := a.store.Clear(); cerr != nil {
		a.printf("warning: %v\n", cerr)
	}
	if err != nil {
		return a.report(err)
	}
	a.printf("Logged out successfully.\n")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		return a.report(err)
	}
	if user == nil {
		return a.report(errors.New("empty response"))
	}
	a.userName = user.Name
	a.printf("%s <%s>\nid: %s\n", user.Name, user.Email, user.ID)
	return nil
}
