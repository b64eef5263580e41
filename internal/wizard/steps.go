package wizard

import "fmt"

// Step identifiers.
const (
	StepBasicInfo   = "basic_info"
	StepDescription = "description"
	StepUnlockDate  = "unlock_date"
	StepGuardians   = "guardians"
	StepMedia       = "media"
	StepMessage     = "message"
)

// Layout selects which sequence of steps a wizard walks.
type Layout string

const (
	// LayoutClassic is the five step flow without media capture.
	LayoutClassic Layout = "classic"
	// LayoutMedia inserts a Media step before the final message.
	LayoutMedia Layout = "media"
)

// Step describes one screen of the wizard. Guard, when set, must hold for the
// draft before the wizard moves past this step.
type Step struct {
	ID     string
	Title  string
	Prompt string
	Field  string
	Guard  func(d *Draft) bool
}

func titleSet(d *Draft) bool      { return d.Title != "" }
func unlockDateSet(d *Draft) bool { return d.UnlockDate != "" }

var (
	basicInfo = Step{
		ID: StepBasicInfo, Title: "Basic Info",
		Prompt: "Vault Title (e.g., My Life Wisdom, Family Memories)",
		Field:  FieldTitle, Guard: titleSet,
	}
	description = Step{
		ID: StepDescription, Title: "Description",
		Prompt: "What does this vault contain? What story does it tell?",
		Field:  FieldDescription,
	}
	unlockDate = Step{
		ID: StepUnlockDate, Title: "Unlock Date",
		Prompt: "When should this vault unlock? (YYYY-MM-DD)",
		Field:  FieldUnlockDate, Guard: unlockDateSet,
	}
	guardians = Step{
		ID: StepGuardians, Title: "Guardians",
		Prompt: "Add trusted guardians (guardian@email.com)",
	}
	media = Step{
		ID: StepMedia, Title: "Media",
		Prompt: "Attach files, take a photo or record a video",
	}
	message = Step{
		ID: StepMessage, Title: "Message",
		Prompt: "Write a heartfelt message that will be revealed when your vault opens...",
		Field:  FieldMessage,
	}
)

// ClassicSteps returns the five step layout.
func ClassicSteps() []Step {
	return []Step{basicInfo, description, unlockDate, guardians, message}
}

// MediaSteps returns the six step layout with the Media step.
func MediaSteps() []Step {
	return []Step{basicInfo, description, unlockDate, guardians, media, message}
}

// StepsFor resolves a layout name. The empty layout means LayoutMedia.
func StepsFor(l Layout) ([]Step, error) {
	switch l {
	case LayoutClassic:
		return ClassicSteps(), nil
	case LayoutMedia, "":
		return MediaSteps(), nil
	}
	return nil, fmt.Errorf("unknown wizard layout %q", l)
}
