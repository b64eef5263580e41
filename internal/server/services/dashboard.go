package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/dbx"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eternalvault/internal/server/storage"
)

const ReadyLabel = "Ready to Open"

type Stats struct {
	ActiveVaults  int `json:"active_vaults"`
	Guardians     int `json:"guardians"`
	MemoriesSaved int `json:"memories_saved"`
}

type FileLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// VaultView is a vault plus the values derived from its unlock date at read
// time. Message is only filled in once the vault is ready to open.
type VaultView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	UnlockDate      string     `json:"unlock_date"`
	Guardians       []string   `json:"guardians"`
	Message         string     `json:"message,omitempty"`
	Files           []FileLink `json:"files"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	DaysUntilUnlock int        `json:"days_until_unlock"`
	ReadyToOpen     bool       `json:"ready_to_open"`
	UnlockLabel     string     `json:"unlock_label"`
}

type QuickAction struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Dashboard struct {
	WelcomeName  string        `json:"welcome_name"`
	Stats        Stats         `json:"stats"`
	Vaults       []VaultView   `json:"vaults"`
	QuickActions []QuickAction `json:"quick_actions"`
}

// DaysUntil is ceil((unlock - now) / 1 day).
func DaysUntil(unlock, now time.Time) int {
	return int(math.Ceil(unlock.Sub(now).Hours() / 24))
}

// UnlockLabel renders a day count for display.
func UnlockLabel(days int) string {
	switch {
	case days <= 0:
		return ReadyLabel
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

type DashboardService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	blobs       storage.BlobStore
	logger      logging.Logger
	now         func() time.Time
}

// NewDashboardService builds the read side. blobs may be nil, in which case
// file references are returned unresolved.
func NewDashboardService(db dbx.DBTX, m repomanager.RepositoryManager, blobs storage.BlobStore, l logging.Logger) *DashboardService {
	return &DashboardService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		logger:      l.With("module", "dashboard"),
		now:         time.Now,
	}
}

// Get reads the profile and the user's vaults independently and derives
// the display values.
func (s *DashboardService) Get(ctx context.Context, userID string) (*Dashboard, error) {
	name, err := s.welcomeName(ctx, userID)
	if err != nil {
		return nil, err
	}

	vaults, err := s.repomanager.Vaults(s.db).ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "list vaults failed", "op", "Dashboard", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	now := s.now()
	d := &Dashboard{
		WelcomeName: name,
		Vaults:      make([]VaultView, 0, len(vaults)),
		QuickActions: []QuickAction{
			{Label: "Create New Vault", Href: routes.CreateVault},
		},
	}

	guardians := make(map[string]struct{})
	for _, v := range vaults {
		if v.Status == common.VaultStatusActive {
			d.Stats.ActiveVaults++
		}
		for _, g := range v.Guardians {
			guardians[g] = struct{}{}
		}
		d.Stats.MemoriesSaved += len(v.Files)
		d.Vaults = append(d.Vaults, s.view(ctx, v, now))
	}
	d.Stats.Guardians = len(guardians)

	return d, nil
}

// Vault returns one of the user's vaults.
func (s *DashboardService) Vault(ctx context.Context, userID, vaultID string) (*VaultView, error) {
	v, err := s.repomanager.Vaults(s.db).GetByID(ctx, userID, vaultID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "get vault failed", "op", "Vault", "vault_id", vaultID, "error", err)
		return nil, common.ErrorInternal
	}
	view := s.view(ctx, v, s.now())
	return &view, nil
}

func (s *DashboardService) welcomeName(ctx context.Context, userID string) (string, error) {
	p, err := s.repomanager.Profiles(s.db).GetByID(ctx, userID)
	if err == nil {
		return p.DisplayName(), nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "get profile failed", "op", "Dashboard", "user_id", userID, "error", err)
		return "", common.ErrorInternal
	}

	acc, err := s.repomanager.Accounts(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "get account failed", "op", "Dashboard", "user_id", userID, "error", err)
		return "", common.ErrorInternal
	}
	return acc.Email, nil
}

func (s *DashboardService) view(ctx context.Context, v *models.Vault, now time.Time) VaultView {
	days := DaysUntil(v.UnlockDate, now)
	view := VaultView{
		ID:              v.ID,
		Title:           v.Title,
		Description:     v.Description,
		UnlockDate:      v.UnlockDate.Format(common.UnlockDateLayout),
		Guardians:       append([]string{}, v.Guardians...),
		Files:           make([]FileLink, 0, len(v.Files)),
		Status:          v.Status,
		CreatedAt:       v.CreatedAt,
		DaysUntilUnlock: days,
		ReadyToOpen:     days <= 0,
		UnlockLabel:     UnlockLabel(days),
	}
	if view.ReadyToOpen {
		view.Message = v.Message
	}

	for _, ref := range v.Files {
		link := FileLink{Name: storage.FileName(ref), URL: ref}
		if s.blobs != nil {
			u, err := s.blobs.URL(ctx, ref)
			if err != nil {
				s.logger.Warn(ctx, "resolve file url failed", "vault_id", v.ID, "ref", ref, "error", err)
			} else {
				link.URL = u
			}
		}
		view.Files = append(view.Files, link)
	}
	return view
}
