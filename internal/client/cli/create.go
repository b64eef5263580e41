package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// chunkSize is how much of a recording goes into one upload.
const chunkSize = 64 << 10

const createHelp = `Commands:
  :back      go to the previous step
  :discard   throw the draft away and start over
  :quit      leave, the draft is kept for the next ev create
  :help      show this text`

var errBadInput = errors.New("unrecognised input, type :help")

func createCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a vault step by step",
		Long: `Walks the vault wizard. The draft is kept on the server, so you can
leave with :quit and pick up where you left off later.

` + createHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Create(cmd.Context())
		},
	}
}

// fatal errors end the walk; everything else is shown and the step repeats.
func fatal(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) ||
		errors.Is(err, api.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Create walks the wizard until the vault is saved or the user leaves.
func (a *App) Create(ctx context.Context) error {
	if a.config != nil && a.config.OnlineCheckInterval > 0 {
		a.probe(ctx)
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.StartOnlineStatusWatcher(wctx, a.config.OnlineCheckInterval)
	}

	v, err := a.wizard.Wizard(ctx)
	if err != nil {
		return err
	}

	for {
		a.renderStep(v)

		line, err := getSimpleText(a.in, "", a.out)
		if errors.Is(err, io.EOF) {
			a.leave()
			return nil
		}
		if err != nil {
			return err
		}

		next, done, err := a.handleInput(ctx, v, line)
		if err != nil {
			if fatal(err) {
				return err
			}
			a.reportStepError(err)
			if e, ok := api.AsError(err); ok && e.Wizard != nil {
				next = e.Wizard
			}
		}
		if done {
			return nil
		}
		if next != nil {
			v = next
		}
	}
}

func (a *App) leave() {
	hint(a.out, "Draft kept. Run `ev create` to continue")
}

func (a *App) handleInput(ctx context.Context, v *api.WizardView, line string) (*api.WizardView, bool, error) {
	switch line {
	case ":help":
		fmt.Fprintln(a.out, createHelp)
		return nil, false, nil
	case ":quit":
		a.leave()
		return nil, true, nil
	case ":back":
		nv, err := a.wizard.Back(ctx)
		return nv, false, err
	case ":discard":
		nv, err := a.wizard.Discard(ctx)
		if err == nil {
			warning(a.out, "Draft discarded")
		}
		return nv, false, err
	}

	switch {
	case v.Field != "":
		return a.fieldInput(ctx, v, line)
	case v.StepID == wizard.StepGuardians:
		return a.guardiansInput(ctx, line)
	case v.StepID == wizard.StepMedia:
		return a.mediaInput(ctx, line)
	case line == "":
		nv, err := a.wizard.Next(ctx)
		return nv, false, err
	}
	return nil, false, errBadInput
}

// fieldInput stores a text answer (an empty line keeps the current value)
// and moves on, or offers to submit on the final step.
func (a *App) fieldInput(ctx context.Context, v *api.WizardView, line string) (*api.WizardView, bool, error) {
	if line != "" {
		nv, err := a.wizard.SetFields(ctx, map[string]string{v.Field: line})
		if err != nil {
			return nil, false, err
		}
		v = nv
	}
	if v.IsFinal {
		return a.confirmSubmit(ctx, v)
	}
	nv, err := a.wizard.Next(ctx)
	return nv, false, err
}

// guardiansInput: an email (or several, comma separated) adds, "-email"
// removes, an empty line continues.
func (a *App) guardiansInput(ctx context.Context, line string) (*api.WizardView, bool, error) {
	if line == "" {
		nv, err := a.wizard.Next(ctx)
		return nv, false, err
	}
	if email, ok := strings.CutPrefix(line, "-"); ok {
		nv, err := a.wizard.RemoveGuardian(ctx, strings.TrimSpace(email))
		return nv, false, err
	}

	var v *api.WizardView
	for _, email := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' }) {
		nv, err := a.wizard.AddGuardian(ctx, email)
		if err != nil {
			return v, false, err
		}
		v = nv
	}
	return v, false, nil
}

// mediaInput: a path attaches a file, ":snap <image>" takes a photo through
// the camera, ":record <file>" streams a recording, "-N" removes file N and
// an empty line continues.
func (a *App) mediaInput(ctx context.Context, line string) (*api.WizardView, bool, error) {
	switch {
	case line == "":
		nv, err := a.wizard.Next(ctx)
		return nv, false, err
	case strings.HasPrefix(line, ":snap "):
		nv, err := a.snapshot(ctx, strings.TrimSpace(strings.TrimPrefix(line, ":snap ")))
		return nv, false, err
	case strings.HasPrefix(line, ":record "):
		nv, err := a.record(ctx, strings.TrimSpace(strings.TrimPrefix(line, ":record ")))
		return nv, false, err
	case strings.HasPrefix(line, "-"):
		n, err := strconv.Atoi(line[1:])
		if err != nil || n < 1 {
			return nil, false, errBadInput
		}
		nv, err := a.wizard.RemoveFile(ctx, n-1)
		return nv, false, err
	case strings.HasPrefix(line, ":"):
		return nil, false, errBadInput
	}
	nv, err := a.Attach(ctx, []string{line})
	return nv, false, err
}

// snapshot feeds one image through the camera preview and captures it.
func (a *App) snapshot(ctx context.Context, path string) (*api.WizardView, error) {
	f, err := readLocalFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := a.wizard.StartCamera(ctx); err != nil {
		return nil, err
	}
	if err := a.wizard.PushFrame(ctx, f.Data, f.ContentType); err != nil {
		_, _ = a.wizard.StopCamera(ctx)
		return nil, err
	}
	if _, err := a.wizard.Snapshot(ctx); err != nil {
		_, _ = a.wizard.StopCamera(ctx)
		return nil, err
	}
	return a.wizard.StopCamera(ctx)
}

// record streams the file at path as a recording, chunk by chunk.
func (a *App) record(ctx context.Context, path string) (*api.WizardView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := a.wizard.StartRecording(ctx); err != nil {
		return nil, err
	}
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		if err := a.wizard.PushChunk(ctx, data[off:end]); err != nil {
			_, _ = a.wizard.StopRecording(ctx)
			return nil, err
		}
	}
	return a.wizard.StopRecording(ctx)
}

func (a *App) confirmSubmit(ctx context.Context, v *api.WizardView) (*api.WizardView, bool, error) {
	a.printSummary(v)

	answer, err := getSimpleText(a.in, "Create this vault? [y/N]", a.out)
	if errors.Is(err, io.EOF) {
		a.leave()
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
		return v, false, nil
	}

	var res *api.SubmitResult
	err = withSpinner(a.out, "Saving vault...", func() error {
		var err error
		res, err = a.wizard.Submit(ctx)
		return err
	})
	if err != nil {
		if res != nil && res.Wizard != nil {
			return res.Wizard, false, err
		}
		return nil, false, err
	}

	success(a.out, "Vault %q created (%s)", v.Draft.Title, res.VaultID)
	hint(a.out, "Run `ev dashboard` to see it")
	return nil, true, nil
}

func (a *App) reportStepError(err error) {
	e, ok := api.AsError(err)
	switch {
	case ok && e.Alert:
		failure(a.out, "%s", color.New(color.Bold).Sprint(strings.ToUpper(e.Message)))
	case ok && e.CanAdvance != nil && !*e.CanAdvance:
		warning(a.out, "Fill in this step before moving on")
	default:
		failure(a.out, "%s", err)
	}
}

func fieldValue(d api.DraftView, field string) string {
	switch field {
	case wizard.FieldTitle:
		return d.Title
	case wizard.FieldDescription:
		return d.Description
	case wizard.FieldUnlockDate:
		return d.UnlockDate
	case wizard.FieldMessage:
		return d.Message
	}
	return ""
}

func (a *App) renderStep(v *api.WizardView) {
	titles := make([]string, len(v.Steps))
	for i, s := range v.Steps {
		if i+1 == v.Step {
			titles[i] = color.CyanString("[%s]", s.Title)
		} else {
			titles[i] = s.Title
		}
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Step %d of %d  %s\n", v.Step, v.Total, strings.Join(titles, " > "))
	fmt.Fprintln(a.out, color.New(color.Bold).Sprint(v.Prompt))

	switch {
	case v.Field != "":
		if cur := fieldValue(v.Draft, v.Field); cur != "" {
			hint(a.out, "current: %s (Enter keeps it)", cur)
		}
	case v.StepID == wizard.StepGuardians:
		for i, g := range v.Draft.Guardians {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, g)
		}
		hint(a.out, "email to add, -email to remove, Enter to continue")
	case v.StepID == wizard.StepMedia:
		for i, f := range v.Draft.Files {
			fmt.Fprintf(a.out, "  %d. %s (%s, %d bytes)\n", i+1, f.Name, f.ContentType, f.Size)
		}
		hint(a.out, "file path to attach, :snap <image>, :record <file>, -N to remove, Enter to continue")
	}
}

func (a *App) printSummary(v *api.WizardView) {
	d := v.Draft
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, color.CyanString("Review"))
	fmt.Fprintf(a.out, "  Title:       %s\n", d.Title)
	fmt.Fprintf(a.out, "  Description: %s\n", d.Description)
	fmt.Fprintf(a.out, "  Unlocks:     %s\n", d.UnlockDate)
	fmt.Fprintf(a.out, "  Guardians:   %s\n", strings.Join(d.Guardians, ", "))
	fmt.Fprintf(a.out, "  Files:       %d\n", len(d.Files))
	fmt.Fprintf(a.out, "  Message:     %s\n", d.Message)
}
