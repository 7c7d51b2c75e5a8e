/*
main.go - Console entry point

PURPOSE:
  Boots the scheduling console: configuration, logging, the local state
  database, the REST client, and the grid controller. Renders the
  operator's current week as text and reports backend health.

STARTUP SEQUENCE:
  1. Load configuration (file + SHIFTBOARD_* environment)
  2. Build the zap logger
  3. Open the local SQLite state database (session + roster cache)
  4. Probe backend health (bounded retry)
  5. Log in, open the relevant week, render the grid

CONFIGURATION KEYS:
  base_url     Backend base URL (default http://localhost:8000)
  db           Local state database path (default shiftboard.db)
  timeout      Per-request timeout (default 10s)
  login_id     Login ID (or SHIFTBOARD_LOGIN_ID)
  password     Password (or SHIFTBOARD_PASSWORD)
  demo         Run against a seeded in-process backend (default false)

DEMO MODE:
  With demo=true an in-memory backend is started on a loopback port and
  seeded with two users and a Monday shift, so the console can be tried
  without any server. Credentials: ada/pw.

EXAMPLES:
  # Against a real backend
  SHIFTBOARD_LOGIN_ID=ada SHIFTBOARD_PASSWORD=pw ./console

  # Self-contained demo
  ./console --demo

SEE ALSO:
  - console/controller.go: the session flow this drives
  - schedtest/server.go: the demo backend
*/
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meridian/shiftboard/client"
	"github.com/meridian/shiftboard/console"
	"github.com/meridian/shiftboard/grid"
	"github.com/meridian/shiftboard/roster"
	"github.com/meridian/shiftboard/schedtest"
	"github.com/meridian/shiftboard/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	viper.SetDefault("base_url", "http://localhost:8000")
	viper.SetDefault("db", "shiftboard.db")
	viper.SetDefault("timeout", "10s")
	viper.SetDefault("demo", false)

	viper.SetConfigName("shiftboard")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/shiftboard")
	viper.SetEnvPrefix("SHIFTBOARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func run() error {
	if err := loadConfig(); err != nil {
		return err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	baseURL := viper.GetString("base_url")
	loginID := viper.GetString("login_id")
	password := viper.GetString("password")

	var demoServer *http.Server
	if viper.GetBool("demo") {
		baseURL, demoServer, err = startDemoBackend(log)
		if err != nil {
			return err
		}
		defer demoServer.Close()
		loginID, password = "ada", "pw"
	}

	store, err := sqlite.New(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer store.Close()

	c := client.New(client.Config{
		BaseURL: baseURL,
		Timeout: viper.GetDuration("timeout"),
		Log:     log,
	}, store)

	monitor := &console.Monitor{
		Prober: c,
		Log:    log,
		OnRetry: func(next, max int, err error) {
			log.Warn("backend unreachable, retrying",
				zap.Int("attempt", next), zap.Int("max", max), zap.Error(err))
		},
	}
	probe := monitor.CheckWithRetry(ctx)
	if !probe.OK {
		return fmt.Errorf("backend unreachable at %s: %w", baseURL, probe.Err)
	}
	log.Info("backend healthy", zap.Duration("latency", probe.Latency))

	if !c.HasValidSession() {
		if loginID == "" {
			return fmt.Errorf("no stored session and no login_id configured")
		}
		if err := c.Login(ctx, loginID, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	me, err := c.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("load current user: %w", err)
	}
	log.Info("logged in", zap.String("user", me.Name), zap.String("role", me.Role))

	catalog := roster.NewCatalog(c, roster.WithStore(store), roster.WithLogger(log))
	ctrl := console.NewController(c, catalog, log)

	week, err := ctrl.OpenWeek(ctx, me.ID, grid.RequestAssign, time.Now())
	if err != nil {
		return fmt.Errorf("open week: %w", err)
	}

	fmt.Printf("\nWeek of %s - %s\n\n", week.Format("2006-01-02"), me.Name)
	fmt.Println(console.RenderGrid(ctrl.State()))
	fmt.Println(console.RenderSummary(ctrl.State()))

	if notices, err := c.ActiveNotices(ctx); err == nil && len(notices) > 0 {
		fmt.Println()
		for _, n := range notices {
			fmt.Printf("! %s: %s\n", n.Title, n.Body)
		}
	}
	return nil
}

// startDemoBackend serves a seeded in-memory backend on a loopback port.
func startDemoBackend(log *zap.Logger) (string, *http.Server, error) {
	srv := schedtest.NewServer()
	srv.SeedMember("Ada Admin", "ada", "pw", "admin")
	memberID := srv.SeedMember("Mo Member", "mo", "pw", "member")
	shiftID := srv.SeedShift(0, 9, 12)
	srv.SeedAssignment(memberID, shiftID, grid.WeekStart(time.Now()), nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("start demo backend: %w", err)
	}
	server := &http.Server{Handler: srv.Router()}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("demo backend failed", zap.Error(err))
		}
	}()

	url := "http://" + ln.Addr().String()
	log.Info("demo backend started", zap.String("url", url))
	return url, server, nil
}
