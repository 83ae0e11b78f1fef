// Package cli is the command line front end. Every command reads and writes
// through a workspace, against either the API or the bundled demo data.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jordanlanch/salescrm/config"
	"github.com/jordanlanch/salescrm/pkg/auth"
	"github.com/jordanlanch/salescrm/pkg/client"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/mutation"
	"github.com/jordanlanch/salescrm/pkg/phone"
	"github.com/jordanlanch/salescrm/pkg/store"
	"github.com/jordanlanch/salescrm/pkg/workspace"
	"github.com/spf13/cobra"
)

// App holds the state shared by every command.
type App struct {
	cfg   *config.Config
	out   io.Writer
	clock func() time.Time
	loc   *time.Location

	demo   bool
	apiURL string
	token  string

	ws          *workspace.Workspace
	collections store.Collections
	remote      *client.Client
}

// Option customizes an App.
type Option func(*App)

// WithClock fixes the time used for "this week" and overdue checks.
func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

// WithLocation sets the zone used to read times given on the command line.
func WithLocation(loc *time.Location) Option {
	return func(a *App) { a.loc = loc }
}

// NewRootCommand builds the crm command tree writing to out.
func NewRootCommand(cfg *config.Config, out io.Writer, opts ...Option) *cobra.Command {
	app := &App{cfg: cfg, out: out, clock: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(app)
	}

	root := &cobra.Command{
		Use:           "crm",
		Short:         "Sales CRM from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			app.close()
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().BoolVar(&app.demo, "demo", cfg.IsDemo(), "use the bundled demo data instead of the API")
	root.PersistentFlags().StringVar(&app.apiURL, "api-url", cfg.APIURL, "CRM API base URL")
	root.PersistentFlags().StringVar(&app.token, "token", cfg.APIToken, "bearer token for the API")

	root.AddCommand(
		app.leadsCommand(),
		app.dealsCommand(),
		app.pipelineCommand(),
		app.activitiesCommand(),
		app.eventsCommand(),
		app.statsCommand(),
		app.seedCommand(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return NewRootCommand(cfg, out).ExecuteContext(ctx)
}

func (a *App) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		collections store.Collections
		ownerID     string
	)
	if a.demo {
		mem := store.NewMemoryStore(phone.NewNormalizer(a.cfg.DefaultPhoneRegion), store.Options{Clock: a.clock})
		mem.Load(store.DemoUserID, store.DemoData())
		collections = mem.Collections()
		ownerID = store.DemoUserID
	} else {
		if a.token == "" {
			return errors.New("no API token: set CRM_TOKEN, pass --token, or use --demo")
		}
		id, err := auth.Subject(a.token)
		if err != nil {
			return err
		}
		a.remote = client.New(a.apiURL, a.token, nil)
		collections = a.remote.Collections()
		ownerID = id
	}

	a.collections = collections
	a.ws = workspace.New(collections, workspace.Options{
		OwnerID:   ownerID,
		Reconcile: mutation.ReconcileAwait,
		Logger:    logger.Discard(),
		Clock:     a.clock,
	})
	if err := a.ws.Load(ctx); err != nil {
		a.close()
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	return nil
}

func (a *App) close() {
	if a.ws != nil {
		a.ws.Close()
		a.ws = nil
	}
}

// failure turns a mutation error into the message shown to the user.
func failure(err error) error {
	var merr *mutation.Error
	if errors.As(err, &merr) {
		return errors.New(merr.Message())
	}
	return err
}
