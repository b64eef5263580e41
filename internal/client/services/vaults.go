package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/filex"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/netx"
)

// VaultAPI is the part of the server API used to read vaults.
type VaultAPI interface {
	Dashboard(ctx context.Context) (*api.Dashboard, error)
	Vault(ctx context.Context, id string) (*api.VaultView, error)
}

type VaultService struct {
	api         VaultAPI
	downloadDir string
	logger      logging.Logger
}

func NewVaultService(a VaultAPI, downloadDir string, l logging.Logger) *VaultService {
	return &VaultService{api: a, downloadDir: downloadDir, logger: l.With("module", "vault_service")}
}

func (s *VaultService) Dashboard(ctx context.Context) (*api.Dashboard, error) {
	return s.api.Dashboard(ctx)
}

func (s *VaultService) Vault(ctx context.Context, id string) (*api.VaultView, error) {
	return s.api.Vault(ctx, id)
}

// Download saves every file of the vault under <downloadDir>/<vault id>
// and returns the written paths. Existing files are never overwritten.
func (s *VaultService) Download(ctx context.Context, id string) (*api.VaultView, []string, error) {
	v, err := s.api.Vault(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if len(v.Files) == 0 {
		return v, nil, nil
	}

	dir, err := filex.EnsureSubdDir(filepath.Join(s.downloadDir, filex.SafeName(v.ID)))
	if err != nil {
		return v, nil, err
	}

	var written []string
	for _, f := range v.Files {
		p, err := s.downloadOne(ctx, dir, f)
		if err != nil {
			return v, written, fmt.Errorf("download %s: %w", f.Name, err)
		}
		written = append(written, p)
	}
	return v, written, nil
}

func (s *VaultService) downloadOne(ctx context.Context, dir string, f api.FileLink) (string, error) {
	p := filex.UniquePath(dir, f.Name)
	out, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}

	n, err := netx.Download(ctx, f.URL, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", err
	}
	s.logger.Debug(ctx, "file downloaded", "path", p, "bytes", n)
	return p, nil
}
