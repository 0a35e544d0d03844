package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/api"
	"github.com/bcaldwell/bistroledger/pkg/bankapi"
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/csvimporter"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
	"github.com/bcaldwell/bistroledger/pkg/influxutils"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
	"github.com/bcaldwell/bistroledger/pkg/postgresutils"
	"github.com/bcaldwell/bistroledger/pkg/xlsximporter"
)

type Runner interface {
	Run() error
}

type runnerFunc func() error

func (f runnerFunc) Run() error {
	return f()
}

func main() {
	klog.InitFlags(nil)
	singleRun := flag.Bool("single-run", false, "run task once (disable cron)")
	dryRun := flag.Bool("dry-run", false, "use an in-memory store, nothing is persisted")
	configFile := flag.String("config", "./config.yml", "configuration file")
	secretsFile := flag.String("secrets", "./secrets.ejson", "secrets file")
	help := flag.Bool("help", false, "show command help")

	flag.Parse()
	defer klog.Flush()

	if *help {
		fmt.Println("restaurant bank import, reconciliation and categorization")
		fmt.Println("bistroledger [options] task [file]")
		fmt.Println("tasks: import-csv FILE, import-xlsx FILE, sync-bank, detect-recurring, reconcile, categorize, dedup-audit, dedup-clean, serve")
		flag.PrintDefaults()
		return
	}

	if flag.NArg() == 0 {
		fmt.Println("No task passed in")
		return
	}

	err := config.ReadConfig(config.ConfigEnvVar, *configFile, *secretsFile)
	if err != nil {
		klog.Exit(err)
	}

	app, err := newApp(*dryRun)
	if err != nil {
		klog.Exit(err)
	}
	defer app.Close()

	task := flag.Arg(0)
	if task == "serve" {
		if err := app.serve(); err != nil {
			klog.Exit(err)
		}
		return
	}

	runner, scheduled, err := app.runner(task, flag.Arg(1))
	if err != nil {
		klog.Exit(err)
	}

	if *singleRun || !scheduled {
		if err := run(task, runner); err != nil {
			app.Close()
			klog.Exit(err)
		}
		return
	}

	logFailure(run(task, runner))

	c := cron.New()
	if err := c.AddFunc(config.CurrentFinanceConfig().UpdateFrequency, func() { logFailure(run(task, runner)) }); err != nil {
		klog.Exitf("invalid update frequency %q: %v", config.CurrentFinanceConfig().UpdateFrequency, err)
	}

	c.Start()

	select {}
}

func run(task string, runner Runner) error {
	klog.Infof("running %s at %s", task, time.Now().Format(time.RFC850))
	if err := runner.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", task, err)
	}
	return nil
}

// logFailure keeps scheduled tasks running after a failed run.
func logFailure(err error) {
	if err != nil {
		klog.Error(err)
	}
}

type app struct {
	store    ledger.Store
	rules    financialimporter.Rules
	importer *financialimporter.TransactionImporter
	syncer   *bankapi.Syncer
	closers  []func() error
}

func newApp(dryRun bool) (*app, error) {
	a := &app{rules: financialimporter.NewRules(*config.CurrentFinanceConfig())}

	if dryRun {
		klog.Info("dry run: using an in-memory store, nothing will be persisted")
		a.store = ledger.NewMemoryStore()
	} else {
		db, err := postgresutils.CreatePostgresClient(config.CurrentSQLConfig().Database)
		if err != nil {
			return nil, fmt.Errorf("error connecting to postgres DB: %w", err)
		}
		klog.Infof("Connected to postgres database %v", config.CurrentSQLConfig().Database)

		store := ledger.NewSQLStore(db)
		a.store = store
		a.closers = append(a.closers, store.Close)
	}

	if err := a.store.Migrate(context.Background()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	opts := []financialimporter.Option{financialimporter.WithMaxRows(config.CurrentFinanceConfig().MaxImportRows)}
	stats, err := influxutils.NewStatsWriterFromConfig(*config.CurrentInfluxConfig(), *config.CurrentInfluxSecrets())
	if err != nil {
		klog.Warningf("import statistics disabled: %v", err)
	} else if stats != nil {
		opts = append(opts, financialimporter.WithStatsRecorder(stats))
		a.closers = append(a.closers, stats.Close)
	}

	a.importer = financialimporter.NewTransactionImporter(a.store, a.rules, config.CurrentFinanceConfig().ReconcileWindowDays, opts...)

	bank := config.CurrentBankConfig()
	if bank.BaseURL != "" && bank.AccountID != "" {
		client := bankapi.NewClient(bank.BaseURL, config.CurrentBankSecrets().AccessToken, time.Duration(bank.TimeoutSeconds)*time.Second)
		a.syncer = bankapi.NewSyncer(client, a.importer, bank.AccountID, bank.IncludePending)
	}

	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			klog.Warningf("failed to close: %v", err)
		}
	}
}

// runner returns the runner for task and whether it should repeat on the cron schedule.
func (a *app) runner(task, file string) (Runner, bool, error) {
	ctx := context.Background()

	switch task {
	case "import-csv":
		if file == "" {
			return nil, false, fmt.Errorf("import-csv requires a file")
		}
		return csvimporter.NewImportCSVRunner(a.importer, file), false, nil
	case "import-xlsx":
		if file == "" {
			return nil, false, fmt.Errorf("import-xlsx requires a file")
		}
		return xlsximporter.NewImportXLSXRunner(a.importer, file), false, nil
	case "sync-bank":
		if a.syncer == nil {
			return nil, false, fmt.Errorf("bank.baseUrl and bank.accountId must be configured to sync")
		}
		return a.syncer, true, nil
	case "detect-recurring":
		return runnerFunc(func() error {
			report, err := financialimporter.NewRecurringDetector(a.store, a.rules).Run(ctx)
			if err != nil {
				return err
			}
			klog.Infof("created %d fixed costs", len(report.Created()))
			return nil
		}), true, nil
	case "reconcile":
		return runnerFunc(func() error {
			n, err := financialimporter.ReconcilePending(ctx, a.store, config.CurrentFinanceConfig().ReconcileWindowDays)
			klog.Infof("reconciled %d transactions", n)
			return err
		}), false, nil
	case "categorize":
		return runnerFunc(func() error {
			n, err := financialimporter.CategorizeUncategorized(ctx, a.store, a.rules)
			klog.Infof("categorized %d transactions", n)
			return err
		}), false, nil
	case "dedup-audit":
		return runnerFunc(func() error {
			groups, err := financialimporter.NewDeduplicator(a.store).Audit(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(groups, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}), false, nil
	case "dedup-clean":
		return runnerFunc(func() error {
			report, err := financialimporter.NewDeduplicator(a.store).Cleanup(ctx)
			klog.Infof("deleted %d of %d duplicate transactions", report.Deleted, report.Flagged)
			return err
		}), false, nil
	}

	return nil, false, fmt.Errorf("unknown task %q", task)
}

// serve runs the HTTP API and the scheduled bank sync and recurring cost detection.
func (a *app) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	for _, task := range []string{"sync-bank", "detect-recurring"} {
		runner, _, err := a.runner(task, "")
		if err != nil {
			klog.Warningf("not scheduling %s: %v", task, err)
			continue
		}
		task := task
		if err := c.AddFunc(config.CurrentFinanceConfig().UpdateFrequency, func() { logFailure(run(task, runner)) }); err != nil {
			return fmt.Errorf("invalid update frequency %q: %w", config.CurrentFinanceConfig().UpdateFrequency, err)
		}
	}
	c.Start()
	defer c.Stop()

	var opts []api.Option
	if a.syncer != nil {
		opts = append(opts, api.WithBankSyncer(a.syncer))
	}
	opts = append(opts, api.WithMaxUploadBytes(config.CurrentFinanceConfig().MaxUploadBytes))

	server := api.NewServer(a.store, a.importer, a.rules, config.CurrentFinanceConfig().ReconcileWindowDays, opts...)
	return server.ListenAndServe(ctx, config.CurrentConfig().HTTP.Addr)
}
