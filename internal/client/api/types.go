package api

import (
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

// Tokens is the pair issued at login and on refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type StepInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type FileInfo struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type DraftView struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	UnlockDate  string     `json:"unlock_date"`
	Message     string     `json:"message"`
	Guardians   []string   `json:"guardians"`
	Files       []FileInfo `json:"files"`
}

// WizardView is the server's rendering of the current wizard step.
type WizardView struct {
	Step       int        `json:"step"`
	Total      int        `json:"total"`
	StepID     string     `json:"step_id"`
	Title      string     `json:"title"`
	Prompt     string     `json:"prompt"`
	Field      string     `json:"field,omitempty"`
	Steps      []StepInfo `json:"steps"`
	CanAdvance bool       `json:"can_advance"`
	CanRetreat bool       `json:"can_retreat"`
	IsFinal    bool       `json:"is_final"`
	Ready      bool       `json:"ready"`
	Previewing bool       `json:"previewing"`
	Recording  bool       `json:"recording"`
	Draft      DraftView  `json:"draft"`
}

type SubmitResult struct {
	Status   wizard.Status `json:"status"`
	VaultID  string        `json:"vault_id,omitempty"`
	Redirect string        `json:"redirect,omitempty"`
	Error    string        `json:"error,omitempty"`
	Wizard   *WizardView   `json:"wizard,omitempty"`
}

type Stats struct {
	ActiveVaults  int `json:"active_vaults"`
	Guardians     int `json:"guardians"`
	MemoriesSaved int `json:"memories_saved"`
}

type FileLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

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

// LocalFile is a file read from disk for attaching to the draft.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}
