// Package commands defines the healthhelper command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"healthhelper/internal/app"
	"healthhelper/internal/config"
	"healthhelper/internal/logger"
	"healthhelper/internal/render"
	"healthhelper/internal/report"
	"healthhelper/internal/validation"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
)

// ErrLoadFailed carries the only message shown when no data source works.
var ErrLoadFailed = errors.New(app.LoadErrorMessage)

// Root returns the command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:  "healthhelper",
		Usage: "Health Helper - personalized health screening recommendations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "directory with the reference tables (DATA_DIR)"},
			&cli.StringFlag{Name: "base-url", Usage: "URL of the base recommendations table (BASE_RECS_URL)"},
			&cli.StringFlag{Name: "age-url", Usage: "URL of the age-specific table (AGE_RECS_URL)"},
			&cli.StringFlag{Name: "fitness-url", Usage: "URL of the physical fitness table (FITNESS_RECS_URL)"},
			&cli.BoolFlag{Name: "strict", Usage: "reject data sources with rows that cannot be indexed (STRICT_DATA)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (LOG_LEVEL)"},
		},
		Before: applyOverrides,
		Commands: []*cli.Command{
			recommendCommand(),
			askCommand(),
			reportCommand(),
			dataCommand(),
		},
	}
}

// applyOverrides lets flags win over the environment for one invocation.
func applyOverrides(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("data-dir") {
		config.Cfg.DataDir = cmd.String("data-dir")
	}
	if cmd.IsSet("base-url") {
		config.Cfg.BaseRecsURL = cmd.String("base-url")
	}
	if cmd.IsSet("age-url") {
		config.Cfg.AgeRecsURL = cmd.String("age-url")
	}
	if cmd.IsSet("fitness-url") {
		config.Cfg.FitnessRecsURL = cmd.String("fitness-url")
	}
	if cmd.IsSet("strict") {
		config.Cfg.StrictData = cmd.Bool("strict")
	}
	if cmd.IsSet("log-level") {
		config.Cfg.LogLevel = cmd.String("log-level")
		logger.Configure(config.Cfg.LogLevel, config.Cfg.LogFormat)
	}
	return ctx, nil
}

func profileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "age", Usage: "your age in whole years, e.g. 45 (required)"},
		&cli.StringFlag{Name: "gender", Usage: "female, male or other"},
		&cli.StringFlag{Name: "smoking", Usage: "smoked in the past 15 years: yes or no"},
		&cli.StringFlag{Name: "alcohol", Usage: "none, light, moderate or heavy"},
		&cli.StringFlag{Name: "activity", Usage: "weekly activity: sedentary, light, moderate or active"},
	}
}

func formFromFlags(cmd *cli.Command) validation.FormInput {
	return validation.FormInput{
		Age:                cmd.String("age"),
		Gender:             cmd.String("gender"),
		SmokingStatus:      cmd.String("smoking"),
		AlcoholConsumption: cmd.String("alcohol"),
		PhysicalActivity:   cmd.String("activity"),
	}
}

// loadApp builds the app from the current configuration and loads its data.
func loadApp(ctx context.Context) (*app.App, error) {
	a := app.New(config.Cfg)
	if err := a.Load(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, ErrLoadFailed
	}
	return a, nil
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Print screenings and physical activity for one profile",
		Flags: append(profileFlags(),
			&cli.BoolFlag{Name: "json", Usage: "print the plan as JSON"},
		),
		Action: recommend,
	}
}

func recommend(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	sel, err := a.Submit(formFromFlags(cmd))
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	if cmd.Bool("json") {
		return render.JSON(out, sel)
	}
	return render.Text(out, sel)
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:   "ask",
		Usage:  "Answer the questionnaire interactively",
		Action: ask,
	}
}

func ask(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	return Interactive(ctx, a, cmd.Root().Reader, cmd.Root().Writer)
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write the personalized plan as a PDF",
		Flags: append(profileFlags(),
			&cli.StringFlag{Name: "out", Usage: "output file (default REPORT_DIR/health-plan-<date>.pdf)"},
		),
		Action: writeReport,
	}
}

func writeReport(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	sel, err := a.Submit(formFromFlags(cmd))
	if err != nil {
		return err
	}

	now := time.Now()
	path := cmd.String("out")
	if path == "" {
		path = filepath.Join(config.Cfg.ReportDir, report.DefaultName(now))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.Write(f, sel, now); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("report: written", map[string]interface{}{"path": path, "id": sel.ID})
	fmt.Fprintf(cmd.Root().Writer, "Report written to %s\n", path)
	return nil
}

func dataCommand() *cli.Command {
	return &cli.Command{
		Name:   "data",
		Usage:  "Load the reference data and describe it",
		Action: describeData,
	}
}

func describeData(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	return render.Summary(cmd.Root().Writer, a.Dataset(), a.Index(), a.Problems())
}
