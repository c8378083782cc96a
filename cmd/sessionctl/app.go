package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-client/gateway"
	"github.com/jrsteele09/go-session-client/interceptor"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/profile"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/rs/zerolog"
)

const usage = `usage: sessionctl <command> [flags]

commands:
  login -email <email> [-password <password>]
  logout
  status
  refresh
  whoami
  verify
  register -email <email> -first <name> -last <name> [-phone <phone>] [-company <id>] [-role <role>]
  reset-request -email <email>
  reset -token <token>`

type app struct {
	cfg       config.Config
	logger    zerolog.Logger
	out       io.Writer
	in        io.Reader
	openStore storeOpener

	lines *bufio.Scanner
}

// env is one wiring of the client stack for a single command
type env struct {
	gateway    *gateway.Gateway
	controller *session.Controller
	close      func()
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.withSession(ctx, func(e *env) error {
			e.controller.Logout(ctx)
			fmt.Fprintln(a.out, "logged out")
			return nil
		})
	case "status":
		return a.withSession(ctx, func(e *env) error {
			a.printStatus(e.controller.Current())
			return nil
		})
	case "refresh":
		return a.withSession(ctx, func(e *env) error {
			if err := e.controller.Refresh(ctx); err != nil {
				return err
			}
			a.printStatus(e.controller.Current())
			return nil
		})
	case "whoami":
		return a.withSession(ctx, a.whoami(ctx))
	case "verify":
		return a.withSession(ctx, func(e *env) error {
			if err := e.gateway.VerifyToken(ctx, e.controller.AccessToken()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "token accepted")
			return nil
		})
	case "register":
		return a.register(ctx, rest)
	case "reset-request":
		return a.resetRequest(ctx, rest)
	case "reset":
		return a.reset(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func (a *app) open(ctx context.Context) (*env, error) {
	store, release, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(gateway.Config{
		BaseURL:    a.cfg.GetAPIURL(),
		HTTPClient: newHTTPClient(a.cfg.GetRequestTimeout()),
		UserAgent:  "sessionctl",
		Logger:     &a.logger,
	})
	if err != nil {
		release()
		return nil, err
	}
	controller := session.New(gw, store,
		session.WithLogger(a.logger),
		session.WithRefreshTimeout(a.cfg.GetRefreshTimeout()),
	)
	return &env{gateway: gw, controller: controller, close: release}, nil
}

// withSession restores the stored session before running fn
func (a *app) withSession(ctx context.Context, fn func(*env) error) error {
	e, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.controller.Init(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("stored session could not be restored")
	}
	return fn(e)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		p, err := a.readLine("password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	e, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.controller.Login(ctx, *email, *password); err != nil {
		return describe(err)
	}
	a.printStatus(e.controller.Current())
	return nil
}

func (a *app) whoami(ctx context.Context) func(*env) error {
	return func(e *env) error {
		if err := e.controller.Current().RequireAuth(); err != nil {
			return err
		}
		client, err := profile.NewClient(a.cfg.GetAPIURL(), interceptor.NewClient(e.controller, a.cfg.GetRequestTimeout(),
			interceptor.WithLogger(a.logger),
		))
		if err != nil {
			return err
		}
		me, err := client.Me(ctx)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(a.out, "id:      %s\nemail:   %s\nname:    %s %s\nrole:    %s\ncompany: %s\n",
			me.ID, me.Email, me.FirstName, me.LastName, me.Role, me.CompanyID)
		return nil
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var r gateway.Registration
	fs.StringVar(&r.Email, "email", "", "account email")
	fs.StringVar(&r.FirstName, "first", "", "first name")
	fs.StringVar(&r.LastName, "last", "", "last name")
	fs.StringVar(&r.Phone, "phone", "", "phone number")
	fs.StringVar(&r.CompanyID, "company", "", "company id")
	fs.StringVar(&r.Role, "role", "", "admin, manager or employee")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if r.Password, err = a.readLine("password: "); err != nil {
		return err
	}
	if r.ConfirmPassword, err = a.readLine("confirm password: "); err != nil {
		return err
	}

	e, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	created, err := e.gateway.Register(ctx, r)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", created.Email, created.Role)
	return nil
}

func (a *app) resetRequest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-request", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.gateway.PasswordResetRequest(ctx, *email); err != nil {
		return describe(err)
	}
	fmt.Fprintln(a.out, "if the account exists, a reset token has been sent")
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(a.out)
	token := fs.String("token", "", "reset token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	password, err := a.readLine("new password: ")
	if err != nil {
		return err
	}
	e, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.gateway.PasswordResetConfirm(ctx, *token, password); err != nil {
		return describe(err)
	}
	fmt.Fprintln(a.out, "password updated")
	return nil
}

func (a *app) printStatus(snap session.Snapshot) {
	fmt.Fprintf(a.out, "state:   %s\n", snap.State)
	if snap.User == nil {
		return
	}
	fmt.Fprintf(a.out, "user:    %s (%s)\n", snap.User.Email, snap.User.Role)
	if snap.User.TenantID != "" {
		fmt.Fprintf(a.out, "company: %s\n", snap.User.TenantID)
	}
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	if a.lines == nil {
		a.lines = bufio.NewScanner(a.in)
	}
	if !a.lines.Scan() {
		if err := a.lines.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(a.lines.Text()), nil
}

// describe appends field errors to validation failures
func describe(err error) error {
	fields := gateway.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.String())
	}
	return fmt.Errorf("%w: %s", errors.ErrValidationFailed, strings.Join(parts, "; "))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: http.DefaultTransport}
}
