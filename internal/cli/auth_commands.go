package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"recruit-console/internal/config"
	"recruit-console/internal/model"
	"recruit-console/internal/session"
)

func runLogin(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "account email")
	password := fs.String("password", "", "account password (or RECRUIT_PASSWORD)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds := model.Credentials{
		Username: strings.TrimSpace(*username),
		Password: *password,
	}
	if creds.Password == "" {
		creds.Password = os.Getenv("RECRUIT_PASSWORD")
	}
	var err error
	if creds.Username == "" {
		if creds.Username, err = promptRequired("username"); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = promptRequired("password"); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	resp, err := a.client.Login(rctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if *jsonOut {
		return printJSON(map[string]any{
			"username":     creds.Username,
			"token_type":   resp.TokenType,
			"session_path": a.session.Path(),
		})
	}
	fmt.Printf("logged in as %s\n", creds.Username)
	fmt.Printf("session: %s\n", a.session.Path())
	return nil
}

func runLogout(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	store := session.NewFile(cfg.SessionPath())
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func runWhoami(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	if !a.client.LoggedIn() {
		return fmt.Errorf("not logged in, run 'recruit-console login'")
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	user, err := a.client.Me(rctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(user)
	}
	fmt.Println(kv("id", user.ID))
	fmt.Println(kv("email", user.Email))
	fmt.Println(kv("name", defaultIfEmpty(user.FullName, "-")))
	fmt.Println(kv("active", yesNo(user.IsActive)))
	return nil
}

func runRegister(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or RECRUIT_PASSWORD)")
	fullName := fs.String("full-name", "", "display name")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := model.Registration{
		Email:    strings.TrimSpace(*email),
		Password: *password,
		FullName: strings.TrimSpace(*fullName),
	}
	if reg.Password == "" {
		reg.Password = os.Getenv("RECRUIT_PASSWORD")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	user, err := a.client.Register(rctx, reg)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if *jsonOut {
		return printJSON(user)
	}
	fmt.Printf("registered %s (%s)\n", user.Email, user.ID)
	fmt.Println("next: recruit-console login --username " + user.Email)
	return nil
}
