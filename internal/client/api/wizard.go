package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/eternalvault/internal/routes"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

func wizardPath(p string) string { return routes.CreateVault + p }

func (c *Client) wizardCall(ctx context.Context, method, path string, body any) (*WizardView, error) {
	r, err := jsonRequest(method, wizardPath(path), body, true)
	if err != nil {
		return nil, err
	}
	var v WizardView
	if err := c.do(ctx, r, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Wizard returns the current step of the session's draft, starting a new
// draft when there is none.
func (c *Client) Wizard(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodGet, "/", nil)
}

// Next advances one step. An incomplete step answers 409 with
// CanAdvance=false and leaves the draft untouched.
func (c *Client) Next(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/next", nil)
}

func (c *Client) Back(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/back", nil)
}

// SetFields assigns text fields by name (title, description, unlock_date, message).
func (c *Client) SetFields(ctx context.Context, fields map[string]string) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPatch, "/draft", fields)
}

func (c *Client) AddGuardian(ctx context.Context, email string) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/guardians", map[string]string{"email": email})
}

func (c *Client) RemoveGuardian(ctx context.Context, email string) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodDelete, "/guardians?email="+url.QueryEscape(email), nil)
}

// AttachFiles uploads files into the draft as one multipart request.
func (c *Client) AttachFiles(ctx context.Context, files []LocalFile) (*WizardView, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	r := request{
		method:      http.MethodPost,
		path:        wizardPath("/files"),
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		auth:        true,
	}
	var v WizardView
	if err := c.do(ctx, r, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) RemoveFile(ctx context.Context, index int) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodDelete, "/files/"+strconv.Itoa(index), nil)
}

func (c *Client) StartCamera(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/camera/start", nil)
}

// PushFrame sends one encoded JPEG or PNG frame to the previewing camera.
func (c *Client) PushFrame(ctx context.Context, frame []byte, contentType string) error {
	r := request{method: http.MethodPost, path: wizardPath("/camera/frame"), body: frame, contentType: contentType, auth: true}
	return c.do(ctx, r, nil)
}

// Snapshot captures the last pushed frame as a photo in the draft.
func (c *Client) Snapshot(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/camera/snapshot", nil)
}

func (c *Client) StopCamera(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/camera/stop", nil)
}

func (c *Client) StartRecording(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/recording/start", nil)
}

// PushChunk appends one raw media chunk to the running recording.
func (c *Client) PushChunk(ctx context.Context, chunk []byte) error {
	r := request{method: http.MethodPost, path: wizardPath("/recording/chunk"), body: chunk, contentType: "application/octet-stream", auth: true}
	return c.do(ctx, r, nil)
}

func (c *Client) StopRecording(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/recording/stop", nil)
}

// Submit saves the draft as a vault. A refused submission comes back as
// both a result (with the server's status) and an *Error.
func (c *Client) Submit(ctx context.Context) (*SubmitResult, error) {
	r, _ := jsonRequest(http.MethodPost, wizardPath("/submit"), nil, true)
	var res SubmitResult
	if err := c.do(ctx, r, &res); err != nil {
		if e, ok := AsError(err); ok {
			return &SubmitResult{Status: wizard.Status(e.Status), Error: e.Message, Redirect: e.Redirect, Wizard: e.Wizard}, err
		}
		return nil, err
	}
	return &res, nil
}

// Discard throws the draft away and returns a fresh first step.
func (c *Client) Discard(ctx context.Context) (*WizardView, error) {
	return c.wizardCall(ctx, http.MethodPost, "/discard", nil)
}
