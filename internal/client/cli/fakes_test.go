package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/client/config"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

var stepFields = map[string]string{
	wizard.StepBasicInfo:   wizard.FieldTitle,
	wizard.StepDescription: wizard.FieldDescription,
	wizard.StepUnlockDate:  wizard.FieldUnlockDate,
	wizard.StepMessage:     wizard.FieldMessage,
}

// fakeWizard mimics the server's six step wizard.
type fakeWizard struct {
	steps []api.StepInfo
	step  int
	draft api.DraftView

	calls     []string
	frameErr  error
	submitErr error
	chunks    [][]byte
	submitted *api.DraftView
}

func newFakeWizard() *fakeWizard {
	return &fakeWizard{
		step: 1,
		steps: []api.StepInfo{
			{ID: wizard.StepBasicInfo, Title: "Basic Info"},
			{ID: wizard.StepDescription, Title: "Description"},
			{ID: wizard.StepUnlockDate, Title: "Unlock Date"},
			{ID: wizard.StepGuardians, Title: "Guardians"},
			{ID: wizard.StepMedia, Title: "Media"},
			{ID: wizard.StepMessage, Title: "Message"},
		},
	}
}

func (f *fakeWizard) call(name string) { f.calls = append(f.calls, name) }

func (f *fakeWizard) view() *api.WizardView {
	s := f.steps[f.step-1]
	d := f.draft
	d.Guardians = append([]string(nil), f.draft.Guardians...)
	d.Files = append([]api.FileInfo(nil), f.draft.Files...)
	return &api.WizardView{
		Step: f.step, Total: len(f.steps), StepID: s.ID, Title: s.Title, Prompt: s.Title + "?",
		Field: stepFields[s.ID], Steps: f.steps, Draft: d,
		CanRetreat: f.step > 1, IsFinal: f.step == len(f.steps),
	}
}

func (f *fakeWizard) Wizard(context.Context) (*api.WizardView, error) {
	f.call("view")
	return f.view(), nil
}

func (f *fakeWizard) Next(context.Context) (*api.WizardView, error) {
	f.call("next")
	blocked := (f.step == 1 && f.draft.Title == "") || (f.step == 3 && f.draft.UnlockDate == "")
	if blocked {
		no := false
		return nil, &api.Error{Code: http.StatusConflict, Message: "current step is incomplete", CanAdvance: &no, Wizard: f.view()}
	}
	if f.step < len(f.steps) {
		f.step++
	}
	return f.view(), nil
}

func (f *fakeWizard) Back(context.Context) (*api.WizardView, error) {
	f.call("back")
	if f.step > 1 {
		f.step--
	}
	return f.view(), nil
}

func (f *fakeWizard) SetFields(_ context.Context, fields map[string]string) (*api.WizardView, error) {
	f.call("set")
	for k, v := range fields {
		switch k {
		case wizard.FieldTitle:
			f.draft.Title = v
		case wizard.FieldDescription:
			f.draft.Description = v
		case wizard.FieldUnlockDate:
			f.draft.UnlockDate = v
		case wizard.FieldMessage:
			f.draft.Message = v
		}
	}
	return f.view(), nil
}

func (f *fakeWizard) AddGuardian(_ context.Context, email string) (*api.WizardView, error) {
	f.call("guardian+" + email)
	f.draft.Guardians = append(f.draft.Guardians, email)
	return f.view(), nil
}

func (f *fakeWizard) RemoveGuardian(_ context.Context, email string) (*api.WizardView, error) {
	f.call("guardian-" + email)
	var keep []string
	for _, g := range f.draft.Guardians {
		if g != email {
			keep = append(keep, g)
		}
	}
	f.draft.Guardians = keep
	return f.view(), nil
}

func (f *fakeWizard) addFile(name, ct string, size int) {
	f.draft.Files = append(f.draft.Files, api.FileInfo{Index: len(f.draft.Files), Name: name, ContentType: ct, Size: size})
}

func (f *fakeWizard) AttachFiles(_ context.Context, files []api.LocalFile) (*api.WizardView, error) {
	f.call("attach")
	for _, lf := range files {
		f.addFile(lf.Name, lf.ContentType, len(lf.Data))
	}
	return f.view(), nil
}

func (f *fakeWizard) RemoveFile(_ context.Context, index int) (*api.WizardView, error) {
	f.call("remove-file")
	if index < 0 || index >= len(f.draft.Files) {
		return nil, &api.Error{Code: http.StatusBadRequest, Message: "no file at that position"}
	}
	f.draft.Files = append(f.draft.Files[:index], f.draft.Files[index+1:]...)
	return f.view(), nil
}

func (f *fakeWizard) StartCamera(context.Context) (*api.WizardView, error) {
	f.call("camera-start")
	return f.view(), nil
}

func (f *fakeWizard) PushFrame(context.Context, []byte, string) error {
	f.call("frame")
	return f.frameErr
}

func (f *fakeWizard) Snapshot(context.Context) (*api.WizardView, error) {
	f.call("snapshot")
	f.addFile("photo.jpg", "image/jpeg", 10)
	return f.view(), nil
}

func (f *fakeWizard) StopCamera(context.Context) (*api.WizardView, error) {
	f.call("camera-stop")
	return f.view(), nil
}

func (f *fakeWizard) StartRecording(context.Context) (*api.WizardView, error) {
	f.call("record-start")
	return f.view(), nil
}

func (f *fakeWizard) PushChunk(_ context.Context, chunk []byte) error {
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakeWizard) StopRecording(context.Context) (*api.WizardView, error) {
	f.call("record-stop")
	size := 0
	for _, c := range f.chunks {
		size += len(c)
	}
	f.addFile("recording.webm", "video/webm", size)
	return f.view(), nil
}

func (f *fakeWizard) Submit(context.Context) (*api.SubmitResult, error) {
	f.call("submit")
	if f.submitErr != nil {
		return &api.SubmitResult{Status: wizard.StatusFailed, Error: f.submitErr.Error(), Wizard: f.view()}, f.submitErr
	}
	d := f.draft
	f.submitted = &d
	return &api.SubmitResult{Status: wizard.StatusSubmitted, VaultID: "vault-1", Redirect: "/dashboard"}, nil
}

func (f *fakeWizard) Discard(context.Context) (*api.WizardView, error) {
	f.call("discard")
	f.step = 1
	f.draft = api.DraftView{}
	return f.view(), nil
}

type fakeAuth struct {
	user      string
	password  string
	loginErr  error
	loggedOut bool
}

func (f *fakeAuth) Register(_ context.Context, email string, password []byte, fullName string) (string, error) {
	f.password = string(password)
	return "Registration successful! You can now sign in.", nil
}

func (f *fakeAuth) Login(_ context.Context, email string, password []byte) error {
	f.password = string(password)
	if f.loginErr != nil {
		return f.loginErr
	}
	f.user = email
	return nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.loggedOut = true
	f.user = ""
	return nil
}

func (f *fakeAuth) CurrentUser(context.Context) (string, error) { return f.user, nil }

type fakeVaults struct {
	dash  *api.Dashboard
	vault *api.VaultView
	paths []string
	err   error
}

func (f *fakeVaults) Dashboard(context.Context) (*api.Dashboard, error) { return f.dash, f.err }
func (f *fakeVaults) Vault(context.Context, string) (*api.VaultView, error) {
	return f.vault, f.err
}
func (f *fakeVaults) Download(context.Context, string) (*api.VaultView, []string, error) {
	return f.vault, f.paths, f.err
}

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

var errDown = errors.New("connection refused")

type testApp struct {
	*App
	out    *bytes.Buffer
	wiz    *fakeWizard
	auth   *fakeAuth
	vaults *fakeVaults
	ping   *fakePinger
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.OnlineCheckInterval = 0

	out := &bytes.Buffer{}
	ta := &testApp{
		out:    out,
		wiz:    newFakeWizard(),
		auth:   &fakeAuth{},
		vaults: &fakeVaults{},
		ping:   &fakePinger{},
	}
	ta.App = &App{
		config: cfg,
		logger: logging.Nop(),
		auth:   ta.auth,
		vaults: ta.vaults,
		wizard: ta.wiz,
		health: ta.ping,
		in:     bufio.NewReader(strings.NewReader(input)),
		out:    out,
	}
	return ta
}
