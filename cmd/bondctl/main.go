// bondctl is a thin command-line stand-in for the HeartBond UI: it drives
// the synchronization core against a running server. Each invocation loads
// the device identity and cached state, performs one command, flushes
// pending pushes and exits.
//
// Usage:
//
//	bondctl [-server URL] [-data DIR] create -name NAME [-reason TEXT] [-theme THEME] [-quote TEXT]
//	bondctl [...] join CODE
//	bondctl [...] show
//	bondctl [...] watch [-for DURATION]
//	bondctl [...] status|activity|plan|quote TEXT
//	bondctl [...] theme THEME
//	bondctl [...] break
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/themax-01/heartbond-moments/internal/bond"
	"github.com/themax-01/heartbond-moments/internal/httpapi"
	"github.com/themax-01/heartbond-moments/internal/identity"
	"github.com/themax-01/heartbond-moments/internal/localcache"
	"github.com/themax-01/heartbond-moments/internal/models"
	"github.com/themax-01/heartbond-moments/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	logging.Setup()

	serverURL := flag.String("server", envOr("HEARTBOND_SERVER", "http://localhost:8080"), "server base URL")
	dataDir := flag.String("data", envOr("HEARTBOND_DATA", defaultDataDir()), "local state directory")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}
	command := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID, err := identity.Load(filepath.Join(*dataDir, "identity.json"))
	if err != nil {
		return err
	}

	client := httpapi.NewClient(*serverURL)
	if err := client.Register(ctx, userID); err != nil {
		return err
	}

	cache := localcache.New(filepath.Join(*dataDir, "bond.json"))
	core := bond.NewCore(client, client, cache, userID)
	defer core.Close()
	core.Start(ctx)

	go reportFailures(core)

	if err := dispatch(ctx, core, command, flag.Args()[1:]); err != nil {
		return err
	}
	return core.Flush(ctx)
}

func dispatch(ctx context.Context, core *bond.Core, command string, args []string) error {
	switch command {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		name := fs.String("name", "", "bond name")
		reason := fs.String("reason", "", "why this bond exists")
		theme := fs.String("theme", string(models.ThemeSpring), "seasonal theme")
		quote := fs.String("quote", "", "shared quote")
		fs.Parse(args)
		if *name == "" {
			return fmt.Errorf("create: -name is required")
		}
		code, err := core.CreateBond(ctx, *name, *reason, models.Theme(*theme), *quote)
		if err != nil {
			return err
		}
		fmt.Printf("bond created, share this code: %s\n", code)
		return nil

	case "join":
		if len(args) < 1 {
			return fmt.Errorf("join: code required")
		}
		if err := core.JoinBond(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("joined %q\n", core.Snapshot().BondName)
		return nil

	case "show":
		printSnapshot(core)
		return nil

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		dur := fs.Duration("for", time.Minute, "how long to watch")
		fs.Parse(args)
		return watch(core, *dur)

	case "status", "activity", "plan", "quote":
		if len(args) < 1 {
			return fmt.Errorf("%s: text required", command)
		}
		switch command {
		case "status":
			core.SetMyStatus(args[0])
		case "activity":
			core.SetMyActivity(args[0])
		case "plan":
			core.SetMyPlan(args[0])
		case "quote":
			core.SetQuote(args[0])
		}
		return nil

	case "theme":
		if len(args) < 1 {
			return fmt.Errorf("theme: name required")
		}
		core.SetTheme(models.Theme(args[0]))
		return nil

	case "break":
		core.BreakBond()
		fmt.Println("bond cleared locally")
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func printSnapshot(core *bond.Core) {
	if !core.HasBond() {
		fmt.Println("no bond yet — use 'create' or 'join CODE'")
		return
	}
	s := core.Snapshot()
	fmt.Printf("%s (code %s, theme %s)\n", s.BondName, core.BondCode(), s.Theme)
	if s.BondReason != "" {
		fmt.Printf("  because: %s\n", s.BondReason)
	}
	if !s.StartDate.IsZero() {
		fmt.Printf("  together for %s\n", time.Since(s.StartDate).Round(time.Hour))
	}
	fmt.Printf("  quote: %s\n", s.Quote)
	fmt.Printf("  me:      status=%q activity=%q plan=%q\n", s.MyStatus, s.MyActivity, s.MyPlan)
	fmt.Printf("  partner: status=%q activity=%q plan=%q\n", s.PartnerStatus, s.PartnerActivity, s.PartnerPlan)
}

// watch prints the snapshot whenever it changes, for the given duration.
func watch(core *bond.Core, d time.Duration) error {
	if !core.HasBond() {
		return fmt.Errorf("no bond to watch")
	}
	deadline := time.After(d)
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()

	last := core.Snapshot()
	printSnapshot(core)
	for {
		select {
		case <-tick.C:
			if s := core.Snapshot(); s != last {
				last = s
				printSnapshot(core)
			}
		case <-deadline:
			return nil
		}
	}
}

func reportFailures(core *bond.Core) {
	for n := range core.Notifications() {
		fmt.Fprintf(os.Stderr, "sync problem (%s): %v\n", n.Op, n.Err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".heartbond"
	}
	return filepath.Join(home, ".heartbond")
}
