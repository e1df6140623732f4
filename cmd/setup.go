package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/aws/s3"
	"github.com/relloyd/tableload/components"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/helper"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/notify"
	"github.com/relloyd/tableload/rdbms"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
)

// registries loads the connections and the jobs that refer to them.
// In twelveFactorMode connections come only from TL_<NAME>_DSN variables.
func registries(home string) (*config.ConnectionRegistry, *config.QueryRegistry, error) {
	var conns *config.ConnectionRegistry
	var err error
	if twelveFactorMode {
		conns, err = config.NewConnectionRegistry()
	} else {
		var f *config.File
		if f, err = config.OpenConnectionsFile(home); err != nil {
			return nil, nil, err
		}
		conns, err = config.LoadConnectionRegistry(f)
	}
	if err != nil {
		return nil, nil, err
	}
	if conns, err = conns.WithEnvironment(envConnectionNames()...); err != nil {
		return nil, nil, err
	}
	jobs, err := config.LoadQueryRegistry(config.OpenJobsFile(home), conns)
	if err != nil {
		return nil, nil, err
	}
	return conns, jobs, nil
}

// runOptions are the run flags shared by the run and schedule commands.
type runOptions struct {
	jobTitle         string
	targetTable      string
	targetConnection string
	recipients       string
	notifyMode       string
	logArchive       string
	logArchiveRegion string
	mail             notify.MailConfig
}

func addRunFlags(c *cobra.Command, o *runOptions, withTargets bool) {
	if withTargets {
		switches.addFlag(c, &o.targetTable, "target-table", "", false, "")
		switches.addFlag(c, &o.targetConnection, "target-connection", "", false, "")
		switches.addFlag(c, &o.recipients, "recipients", "", false, "")
	}
	switches.addFlag(c, &o.notifyMode, "notify", "mail", false, "")
	switches.addFlag(c, &o.mail.From, "mail-from", constants.NotifySenderDefault, false, "")
	switches.addFlag(c, &o.mail.SmtpHost, "smtp-host", "", false, "")
	switches.addFlag(c, &o.mail.SmtpPort, "smtp-port", "25", false, "")
	switches.addFlag(c, &o.mail.Username, "smtp-user", "", false, "")
	switches.addFlag(c, &o.mail.Password, "smtp-password", "", false, "")
	switches.addFlag(c, &o.mail.SendmailPath, "sendmail-path", "", false, "")
	switches.addFlag(c, &o.logArchive, "log-archive", "", false, "")
	switches.addFlag(c, &o.logArchiveRegion, "log-archive-region", "", false, "")
}

func newNotifier(log logger.Logger, o *runOptions) (notify.Notifier, error) {
	switch o.notifyMode {
	case "log":
		return &notify.LogNotifier{Log: log}, nil
	case "mail", "":
		return notify.NewMailNotifier(log, o.mail)
	}
	return nil, fmt.Errorf("unsupported notify mode %q, use mail or log", o.notifyMode)
}

func newArchiver(o *runOptions) (actions.LogArchiver, error) {
	if o.logArchive == "" {
		return nil, nil
	}
	b, err := s3.ParseURL(o.logArchive, o.logArchiveRegion)
	if err != nil {
		return nil, err
	}
	return s3.NewLogArchiver(b)
}

// registryLoader returns the connections and jobs for a run.
type registryLoader func() (*config.ConnectionRegistry, *config.QueryRegistry, error)

// runJob executes one job with its own execution log file.
// The logger and notifier come first so that a failure to load the registries is still reported.
func runJob(ctx context.Context, home string, load registryLoader, o runOptions) *actions.JobResult {
	logPath := filepath.Join(home, constants.LogDirName,
		fmt.Sprintf("%v-%v-%v.log", o.jobTitle, time.Now().Format(constants.TimeFormatYearSeconds), xid.New().String()))
	fail := func(err error) *actions.JobResult {
		return &actions.JobResult{Job: o.jobTitle, State: actions.JobFailed, History: []actions.JobState{actions.JobFailed}, Err: err}
	}
	log, err := logger.NewFileLogger(constants.AppName, logLevel, stackDumpOnPanic, logPath)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = log.Close() }()
	log.Info("Execution log is ", logPath)
	notifier, err := newNotifier(log, &o)
	if err != nil {
		log.Error(err)
		return fail(err)
	}
	cfg := &actions.JobConfig{
		Log:              log,
		JobTitle:         o.jobTitle,
		Notifier:         notifier,
		TargetConnection: o.targetConnection,
		TargetTable:      o.targetTable,
		Recipients:       helper.CsvToStringSliceTrimSpaces(o.recipients),
	}
	if cfg.Archiver, err = newArchiver(&o); err != nil {
		cfg.Archiver = nil
		return actions.ReportFailure(ctx, cfg, err)
	}
	conns, jobs, err := load()
	if err != nil {
		return actions.ReportFailure(ctx, cfg, err)
	}
	cfg.Queries = jobs
	cfg.Connections = rdbms.NewProvider(log, conns)
	cfg.Fetcher = components.NewDatasetFetcher(log)
	res := actions.RunJob(ctx, cfg)
	log.Info("Job ", o.jobTitle, " finished with state ", res.State, " in ", res.Finished.Sub(res.Started).Round(time.Millisecond))
	return res
}
