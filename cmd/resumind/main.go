// Command resumind is a terminal client for the resume screening service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/resumind-client/internal/bootstrap"
	"github.com/kirillkom/resumind-client/internal/config"
	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/usecase"
	"github.com/kirillkom/resumind-client/internal/infrastructure/files"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitRelogin = 3
)

var errUsage = errors.New("usage")

const usageText = `resumind CLI
Usage:
  resumind <cmd> [args]

Commands:
  login      -u <username> -p <password>
  register   -u <username> -e <email> -p <password> [-confirm <password>]
  logout
  status
  jobs
  job confirm -title <title> [-skill <skill> ...]
  job change
  job show
  skills add <skill>
  skills rm <skill>
  upload     [-single <file>] [<file> ...]
  resumes
  resumes rm -id <id> [-id <id> ...]
  reports    [-xlsx <path>]
`

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, newApp))
}

func newApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg)
}

type appFactory func(ctx context.Context) (*bootstrap.App, error)

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory appFactory) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}
	if args[0] == "version" {
		fmt.Fprintf(stdout, "resumind %s (%s)\n", version, buildDate)
		return exitOK
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stdout, usageText)
		return exitOK
	}

	app, err := factory(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "startup error: %v\n", err)
		return exitFailure
	}
	defer app.Close()

	cli := &commands{app: app, out: stdout}
	err = cli.dispatch(ctx, args[0], args[1:])
	return report(stderr, app, err)
}

// report prints err for a human and maps it to an exit code.
func report(stderr io.Writer, app *bootstrap.App, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}

	if redirect, ok := domain.AsAuthRedirect(err); ok {
		fmt.Fprintf(stderr, "Your session has expired. Run `resumind login` to sign in again (%s).\n", redirect.RedirectTo)
		return exitRelogin
	}
	if domain.IsKind(err, domain.ErrInvalidInput) {
		fmt.Fprintln(stderr, validationMessage(err))
		return exitUsage
	}
	if domain.IsKind(err, domain.ErrActionInProgress) {
		fmt.Fprintln(stderr, "Another request is already in progress.")
		return exitFailure
	}

	app.Logger.Debug("command_failed", zap.Error(err))
	fmt.Fprintln(stderr, domain.UserMessage(err, genericMessage(err)))
	return exitFailure
}

func validationMessage(err error) string {
	marker := domain.ErrInvalidInput.Error() + ": "
	msg := err.Error()
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

func genericMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrSkillsNotSynced):
		return "Job confirmed, but the latest skill changes were not saved. " + usecase.MsgUploadFailedFallback
	case domain.IsKind(err, domain.ErrNetwork), domain.IsKind(err, domain.ErrTemporary):
		return "The server is unreachable. " + usecase.MsgUploadFailedFallback
	case domain.IsKind(err, domain.ErrUnauthorized):
		return "Invalid credentials."
	default:
		return "Something went wrong. " + usecase.MsgUploadFailedFallback
	}
}

type commands struct {
	app *bootstrap.App
	out io.Writer
}

func (c *commands) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.login(ctx, args)
	case "register":
		return c.register(ctx, args)
	case "logout":
		return c.logout(ctx)
	case "status":
		return c.status()
	case "jobs":
		return c.jobs(ctx)
	case "job":
		return c.job(ctx, args)
	case "skills":
		return c.skills(ctx, args)
	case "upload":
		return c.upload(ctx, args)
	case "resumes":
		return c.resumes(ctx, args)
	case "reports":
		return c.reports(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (c *commands) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := c.app.AuthUC.Login(ctx, *username, *password); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged in.")
	return nil
}

func (c *commands) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password")
	confirm := fs.String("confirm", "", "password confirmation (defaults to -p)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *confirm == "" {
		*confirm = *password
	}
	err := c.app.AuthUC.Register(ctx, domain.RegisterInput{
		Username:        *username,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Account created. Logged in.")
	return nil
}

func (c *commands) logout(ctx context.Context) error {
	if err := c.app.AuthUC.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out.")
	return nil
}

func (c *commands) status() error {
	st := c.app.AuthUC.Status()
	if !st.Authenticated {
		fmt.Fprintln(c.out, "Not logged in.")
		return nil
	}
	fmt.Fprintln(c.out, "Logged in.")
	if !st.AccessExpiry.IsZero() {
		fmt.Fprintf(c.out, "Access token expires %s\n", st.AccessExpiry.Local().Format(time.RFC1123))
	}
	if !st.CanRefresh {
		fmt.Fprintln(c.out, "No refresh token; you will need to log in again when access expires.")
	}
	return nil
}

func (c *commands) jobs(ctx context.Context) error {
	jobs, err := c.app.Workflow.Start(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(c.out, "No jobs offered.")
		return nil
	}
	for _, category := range domain.GroupJobs(jobs) {
		fmt.Fprintf(c.out, "%s\n", category.Name)
		for _, title := range category.Titles {
			fmt.Fprintf(c.out, "  %s\n", title)
		}
	}
	return nil
}

func (c *commands) job(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: job needs a subcommand", errUsage)
	}
	if _, err := c.app.Workflow.Start(ctx); err != nil {
		return err
	}
	switch args[0] {
	case "confirm":
		return c.confirmJob(ctx, args[1:])
	case "change":
		if err := c.app.Workflow.ChangeJob(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Job selection cleared.")
		return nil
	case "show":
		c.printView()
		return nil
	default:
		return fmt.Errorf("%w: unknown job subcommand %q", errUsage, args[0])
	}
}

func (c *commands) confirmJob(ctx context.Context, args []string) error {
	fs := newFlagSet("job confirm")
	title := fs.String("title", "", "job title")
	var skills stringList
	fs.Var(&skills, "skill", "skill to add before confirming (repeatable)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	wf := c.app.Workflow
	if err := wf.SelectJob(ctx, *title); err != nil {
		return err
	}
	for _, skill := range skills {
		if _, err := wf.AddSkill(ctx, skill); err != nil {
			return err
		}
	}
	if err := wf.Confirm(ctx); err != nil {
		if errors.Is(err, usecase.ErrSkillsNotSynced) {
			c.printView()
		}
		return err
	}
	c.printView()
	return nil
}

func (c *commands) skills(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: skills needs add|rm and one skill", errUsage)
	}
	wf := c.app.Workflow
	if _, err := wf.Start(ctx); err != nil {
		return err
	}

	var (
		task *usecase.SkillSync
		err  error
	)
	switch args[0] {
	case "add":
		task, err = wf.AddSkill(ctx, args[1])
	case "rm":
		task, err = wf.RemoveSkill(ctx, args[1])
	default:
		return fmt.Errorf("%w: unknown skills subcommand %q", errUsage, args[0])
	}
	if err != nil {
		return err
	}
	if task != nil {
		if err := task.Run(ctx); err != nil {
			fmt.Fprintln(c.out, "Skills changed locally but could not be saved to the server.")
			return err
		}
	}
	c.printView()
	return nil
}

func (c *commands) upload(ctx context.Context, args []string) error {
	fs := newFlagSet("upload")
	single := fs.String("single", "", "upload exactly one file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	wf := c.app.Workflow
	if _, err := wf.Start(ctx); err != nil {
		return err
	}
	if *single != "" {
		file, err := files.Load(*single)
		if err != nil {
			return err
		}
		if err := wf.StageSingle(file); err != nil {
			return err
		}
	}
	if fs.NArg() > 0 {
		staged, err := files.LoadAll(fs.Args())
		if err != nil {
			return err
		}
		if dropped := wf.StageMulti(staged); dropped > 0 {
			fmt.Fprintf(c.out, "%s Dropped %d file(s).\n", usecase.MsgInvalidFilesDropped, dropped)
		}
	}

	result, err := wf.Submit(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return err
		}
		if _, ok := domain.AsAuthRedirect(err); ok {
			return err
		}
		return fmt.Errorf("upload: %w", detailOr(err, usecase.MsgUploadFailedFallback))
	}
	fmt.Fprintf(c.out, "Uploaded: %s (%d extracted)\n", result.Headline, len(result.Extracted))
	return nil
}

func (c *commands) resumes(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "rm" {
		fs := newFlagSet("resumes rm")
		var ids intList
		fs.Var(&ids, "id", "resume id (repeatable)")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if err := c.app.ResumesUC.Delete(ctx, ids); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted %d resume(s).\n", len(ids))
		return nil
	}

	records, err := c.app.ResumesUC.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No resumes uploaded yet.")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS\tFILE")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.DisplayName(), r.Summary.Email, r.DisplayStatus(), r.Filename)
	}
	return tw.Flush()
}

func (c *commands) reports(ctx context.Context, args []string) error {
	fs := newFlagSet("reports")
	xlsxPath := fs.String("xlsx", "", "export the ranking to an .xlsx file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var (
		reports []domain.Report
		err     error
	)
	if *xlsxPath != "" {
		reports, err = c.app.ReportsUC.Export(ctx, *xlsxPath)
	} else {
		reports, err = c.app.ReportsUC.Ranked(ctx)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tMATCH\tDATE")
	for i, r := range reports {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.0f%%\t%s\n", i+1, r.Name, r.Score, r.MatchRatio()*100, r.Date)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if *xlsxPath != "" {
		fmt.Fprintf(c.out, "Exported %d report(s) to %s\n", len(reports), *xlsxPath)
	}
	return nil
}

func (c *commands) printView() {
	view := c.app.Workflow.View()
	switch view.State {
	case domain.StateNoJob:
		fmt.Fprintln(c.out, "No job selected.")
		return
	case domain.StateJobSelected:
		fmt.Fprintf(c.out, "Job: %s (not confirmed)\n", view.Job)
	default:
		fmt.Fprintf(c.out, "Job: %s (confirmed)\n", view.Job)
	}
	if len(view.Skills) == 0 {
		fmt.Fprintln(c.out, "Skills: none")
	} else {
		fmt.Fprintf(c.out, "Skills: %s\n", strings.Join(view.Skills, ", "))
	}
}

// detailOr keeps err in the chain but prefers the server's detail as its text.
func detailOr(err error, fallback string) error {
	return &messageError{msg: domain.UserMessage(err, fallback), err: err}
}

type messageError struct {
	msg string
	err error
}

func (e *messageError) Error() string        { return e.msg }
func (e *messageError) Unwrap() error        { return e.err }
func (e *messageError) ServerDetail() string { return e.msg }

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type intList []int

func (l *intList) String() string {
	parts := make([]string, 0, len(*l))
	for _, n := range *l {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid id %q", v)
	}
	*l = append(*l, n)
	return nil
}
