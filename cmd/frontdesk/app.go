package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/TheDarkness2001/SMS-sub002/internal/admin"
	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
	"github.com/TheDarkness2001/SMS-sub002/internal/branch"
	"github.com/TheDarkness2001/SMS-sub002/internal/config"
	"github.com/TheDarkness2001/SMS-sub002/internal/device"
	"github.com/TheDarkness2001/SMS-sub002/internal/form"
	"github.com/TheDarkness2001/SMS-sub002/internal/i18n"
	"github.com/TheDarkness2001/SMS-sub002/internal/logger"
	"github.com/TheDarkness2001/SMS-sub002/internal/session"
	"github.com/TheDarkness2001/SMS-sub002/internal/storage"
	"github.com/TheDarkness2001/SMS-sub002/internal/telemetry"
	"github.com/TheDarkness2001/SMS-sub002/internal/wallet"
)

// Terminal access, replaced in tests
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

// usageError is a bad invocation; it exits with exitUsage
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app holds everything a command needs; it lives for one invocation
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	locale  *i18n.Locale
	session *session.Manager
	gw      *apiclient.Client
	api     *api.Client
	branch  *branch.Selector
	device  *device.Registry
	metrics *apiclient.Metrics
	tracer  *sdktrace.TracerProvider
	stores  []storage.Store

	in     *bufio.Reader
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
	color  bool

	expired atomic.Bool
}

func newApp(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		in:     bufio.NewReader(stdin),
		stdin:  stdin,
		out:    stdout,
		errOut: stderr,
		color:  terminalWriter(stdout) && os.Getenv("NO_COLOR") == "",
	}

	sessionStore, err := storage.OpenSession(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	a.stores = append(a.stores, sessionStore)

	durable, err := storage.OpenDurable(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening device store: %w", err)
	}
	a.stores = append(a.stores, durable)

	locale, err := i18n.NewLocale(i18n.Language(cfg.App.Language))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading message catalogs: %w", err)
	}
	a.locale = locale.WithPreferences(ctx, durable)

	a.session, err = session.NewManager(ctx, sessionStore, session.WithLogger(log))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	a.metrics = apiclient.NewMetrics(apiclient.DefaultMetricsConfig())
	a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating tracer provider: %w", err)
	}
	a.gw, err = apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, a.session,
		apiclient.WithLogger(log),
		apiclient.WithMetrics(a.metrics),
		apiclient.WithTracerProvider(a.tracer),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}
	a.api = api.NewClient(a.gw)
	a.session.Attach(a.api.Auth, a.gw)
	a.session.OnExpired(func() { a.expired.Store(true) })

	a.branch, err = branch.NewSelector(ctx, durable)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("restoring branch: %w", err)
	}
	a.device = device.NewRegistry(durable)
	return a, nil
}

// Close flushes telemetry and closes the stores
func (a *app) Close() {
	if a.tracer != nil {
		telemetry.Shutdown(a.tracer, a.log)
	}
	for _, s := range a.stores {
		if err := s.Close(); err != nil {
			a.log.Warn("Failed to close store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// execute runs one command inside a span and maps its outcome to an exit code
func (a *app) execute(ctx context.Context, name string, cmd command, args []string) int {
	ctx, span := a.tracer.Tracer("frontdesk").Start(ctx, "frontdesk "+name)
	defer span.End()

	ctx = logger.WithContext(ctx, a.log)
	if u, ok := a.session.Current(); ok {
		ctx = logger.WithUserID(ctx, u.ID)
	}
	if id := a.branch.Selected(); id != "" {
		ctx = logger.WithBranchID(ctx, id)
	}

	err := cmd.run(ctx, a, args)
	if a.expired.Load() {
		fmt.Fprintln(a.errOut, a.locale.T("app.session_expired"))
		fmt.Fprintln(a.errOut, a.locale.T("app.login_prompt"))
		return exitSessionExpired
	}
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(a.errOut, "Error: %s\n", ue.msg)
		return exitUsage
	}
	logger.L(ctx).Debug("Command failed", zap.String("command", name), zap.Error(err))
	fmt.Fprintln(a.errOut, a.message(err))
	return exitError
}

// message renders err for the user in the selected language
func (a *app) message(err error) string {
	if ve, ok := form.AsValidation(err); ok {
		return ve.Message(a.locale)
	}
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return a.locale.T("auth.not_signed_in") + "\n" + a.locale.T("app.login_prompt")
	case errors.Is(err, admin.ErrInvalidTransition):
		return a.locale.T("admin.invalid_transition")
	case errors.Is(err, session.ErrNotStaff), errors.Is(err, session.ErrNotImpersonating):
		return err.Error()
	case errors.Is(err, apiclient.ErrTransport):
		return a.locale.T("app.load_failed")
	}
	return apiclient.UserMessage(err, a.locale.T("app.generic_error"))
}

// newFlags creates a subcommand flag set writing to stderr
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("frontdesk "+name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// parse parses args, turning flag errors into usage errors
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &usageError{msg: err.Error()}
	}
	return nil
}

func (a *app) printf(key string, args ...interface{}) {
	fmt.Fprintln(a.out, a.locale.T(key, args...))
}

// requireUser returns the signed-in user
func (a *app) requireUser() (session.User, error) {
	u, ok := a.session.Current()
	if !ok || !a.session.IsAuthenticated() {
		return session.User{}, session.ErrNotAuthenticated
	}
	return u, nil
}

// studentOwner resolves whose wallet a command acts on: the -student flag
// for staff, the signed-in student, or a parent's child.
func (a *app) studentOwner(studentFlag string) (api.Owner, error) {
	u, err := a.requireUser()
	if err != nil {
		return api.Owner{}, err
	}
	if studentFlag != "" {
		return api.StudentOwner(studentFlag), nil
	}
	switch u.UserType {
	case api.UserStudent:
		return api.StudentOwner(u.ID), nil
	case api.UserParent:
		if u.StudentID != "" {
			return api.StudentOwner(u.StudentID), nil
		}
	}
	return api.Owner{}, usagef("-student is required")
}

func (a *app) limits() wallet.Limits {
	return wallet.LimitsFromConfig(a.cfg.Wallet)
}

func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.errOut, a.locale.T("auth.password_prompt"))
	if f, ok := a.stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func terminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}
