// Package cli implements the sbak command-line interface: init, backup,
// restore, history, list, and info, built on kingpin.
package cli

import (
	"context"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/internal/slog"
	"github.com/sbak-archive/sbak/repo"
)

var log = slog.Module("sbak/cli")

// nolint:gochecknoglobals
var (
	defaultColor = color.New()
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgHiRed)
	noteColor    = color.New(color.FgHiCyan)
)

// textOutput is the small stdout/stderr helper every command embeds,
// resolved lazily against the App so commands stay testable against a
// fake appServices.
type textOutput struct {
	svc appServices
}

func (o *textOutput) setup(svc appServices) {
	o.svc = svc
}

func (o *textOutput) printStdout(msg string, args ...interface{}) {
	defaultColor.Fprintf(o.svc.stdout(), msg, args...)
}

func (o *textOutput) printStderr(msg string, args ...interface{}) {
	warningColor.Fprintf(o.svc.stderr(), msg, args...)
}

func (o *textOutput) printNote(msg string, args ...interface{}) {
	noteColor.Fprintf(o.svc.stdout(), msg, args...)
}

// commandParent is implemented by *kingpin.Application and *kingpin.CmdClause.
type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// appServices are the methods of *App command handlers are allowed to call.
type appServices interface {
	rootContext() context.Context
	repositoryAction(act func(ctx context.Context, r *repo.Repository) error) func(*kingpin.ParseContext) error
	stdout() io.Writer
	stderr() io.Writer
}

// App holds per-invocation CLI state: the repository path flag, the
// output streams, and one struct per subcommand.
type App struct {
	repoPath string
	verbose  bool

	stdoutWriter io.Writer
	stderrWriter io.Writer

	initRepo commandInitRepo
	initBank commandInitBank
	backup   commandBackup
	restore  commandRestore
	history  commandHistory
	list     commandList
	info     commandInfo
}

// NewApp returns an App writing to the process's real stdout/stderr.
func NewApp() *App {
	return &App{
		stdoutWriter: colorable.NewColorableStdout(),
		stderrWriter: colorable.NewColorableStderr(),
	}
}

func (a *App) stdout() io.Writer { return a.stdoutWriter }
func (a *App) stderr() io.Writer { return a.stderrWriter }

// rootContext returns the context every command runs under, with a
// structured-logging sink installed when --verbose is set.
func (a *App) rootContext() context.Context {
	ctx := context.Background()
	if a.verbose {
		ctx = slog.WithLogger(ctx, slog.ToWriter(a.stderrWriter))
	}

	return ctx
}

// repositoryAction adapts act into a kingpin action that opens the
// repository named by --repo before running it.
func (a *App) repositoryAction(act func(ctx context.Context, r *repo.Repository) error) func(*kingpin.ParseContext) error {
	return func(*kingpin.ParseContext) error {
		r, err := repo.Open(a.repoPath)
		if err != nil {
			return errors.Wrap(err, "opening repository")
		}

		return act(a.rootContext(), r)
	}
}

// Attach wires every subcommand onto kp.
func (a *App) Attach(kp *kingpin.Application) {
	kp.Flag("repo", "Path to the sbak repository").Default(".").StringVar(&a.repoPath)
	kp.Flag("verbose", "Log sbak's internal operations to stderr").BoolVar(&a.verbose)

	initCmd := kp.Command("init", "Create a repository or a bank")
	a.initRepo.setup(a, initCmd)
	a.initBank.setup(a, initCmd)

	a.backup.setup(a, kp)
	a.restore.setup(a, kp)
	a.history.setup(a, kp)
	a.list.setup(a, kp)
	a.info.setup(a, kp)
}

// PrintError writes err to stderr in the error color, including its
// wrapped cause chain.
func PrintError(w io.Writer, err error) {
	errorColor.Fprintf(w, "error: %v\n", err)
}
