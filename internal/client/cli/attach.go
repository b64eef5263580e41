package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/spf13/cobra"
)

func attachCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <path>...",
		Short: "Add files to the vault being created",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app().Attach(cmd.Context(), args)
			if err != nil {
				return err
			}
			success(app().out, "Draft now holds %d file(s)", len(v.Draft.Files))
			return nil
		},
	}
}

// readLocalFile loads path and guesses its content type from the
// extension, then from the content.
func readLocalFile(path string) (api.LocalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.LocalFile{}, err
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return api.LocalFile{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}

// Attach uploads the files at paths into the current draft.
func (a *App) Attach(ctx context.Context, paths []string) (*api.WizardView, error) {
	files := make([]api.LocalFile, 0, len(paths))
	for _, p := range paths {
		f, err := readLocalFile(p)
		if err != nil {
			return nil, fmt.Errorf("attach: %w", err)
		}
		files = append(files, f)
	}

	var v *api.WizardView
	err := withSpinner(a.out, "Uploading...", func() error {
		var err error
		v, err = a.wizard.AttachFiles(ctx, files)
		return err
	})
	return v, err
}
