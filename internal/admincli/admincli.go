// Package admincli implements issuedesk-admin, the operator tool. It is the
// only way to grant the admin role; registration through the API always
// creates regular users.
package admincli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/flagx"
	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/netx"
	"github.com/dmitrijs2005/issuedesk/internal/server/auth"
	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/dmitrijs2005/issuedesk/internal/server/mailer"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/issuedesk/internal/server/services"
)

const usage = `usage: issuedesk-admin <command> [flags]

commands:
  promote      -email <email>                 give an existing account the admin role
  create       -email <email> [-name <name>]  create a new admin account (prompts for the password)
  upload-photo -file <path>                   upload a photo to the bucket and print its key

storage and config flags are shared with the server (-c, -d, -m, -p, ...)`

var (
	ErrUsage = errors.New("invalid usage")

	newRepoManager    = repomanager.New
	newPhotoPresigner = func(cfg config.S3Config) services.PhotoPresigner { return services.NewPhotoService(cfg) }
	uploadPresigned   = netx.UploadPresigned
)

var commandFlags = []string{"-email", "-name", "-file"}

type App struct {
	config *config.Config
	users  *services.UserService
	in     *bufio.Reader
	out    io.Writer
}

// Run executes one admin command. args excludes the program name.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer, logger logging.Logger) error {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name (create only)")
	file := fs.String("file", "", "photo to upload")
	if err := fs.Parse(flagx.FilterArgs(rest, commandFlags)); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, err := config.Load(rest)
	if err != nil {
		return err
	}
	app := &App{config: cfg, in: bufio.NewReader(in), out: out}

	switch cmd {
	case "upload-photo":
		return app.uploadPhoto(ctx, *file)
	case "promote", "create":
	default:
		fmt.Fprintln(out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	rm, err := newRepoManager(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	defer rm.Close(ctx)
	if err := rm.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(cfg.Auth.SecretKey), cfg.Auth.TokenValidity)
	logMail := func() (mailer.Sender, error) { return mailer.NewLogSender(logger), nil }
	app.users = services.NewUserService(rm.Users(), tokens, auth.NewBcryptHasher(0), logMail, cfg.Auth, logger, nil)

	if cmd == "promote" {
		return app.promote(ctx, *email)
	}
	return app.create(ctx, *email, *name)
}

func (a *App) promote(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: -email is required", ErrUsage)
	}
	u, err := a.users.PromoteAdmin(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		return err
	}
	fmt.Fprintf(a.out, "%s (%s) is now an admin\n", u.Email, u.ID)
	return nil
}

func (a *App) create(ctx context.Context, email, name string) error {
	var err error
	if email == "" {
		if email, err = getSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}
	if name == "" {
		if name, err = getSimpleText(a.in, "Name", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	confirm, err := getPassword(a.out, "Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	u, err := a.users.CreateAdmin(ctx, name, email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return fmt.Errorf("a user with email %s already exists; use promote", email)
		case errors.Is(err, common.ErrorMissingField):
			return errors.New("email, name and password are required")
		}
		return err
	}
	fmt.Fprintf(a.out, "admin %s created (%s)\n", u.Email, u.ID)
	return nil
}

// uploadPhoto puts a local file into the photo bucket. The printed key is
// what goes into an issue's photo field.
func (a *App) uploadPhoto(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: -file is required", ErrUsage)
	}
	if a.config.S3.Bucket == "" {
		return errors.New("photo storage is not configured (s3.bucket is empty)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}

	key, url, err := newPhotoPresigner(a.config.S3).PresignPut(ctx)
	if err != nil {
		return fmt.Errorf("presign upload: %w", err)
	}
	if err := uploadPresigned(ctx, nil, url, http.DetectContentType(data), bytes.NewReader(data)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, key)
	return nil
}
