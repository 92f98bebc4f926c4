package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"storyblok-migrate/internal/config"
	"storyblok-migrate/internal/download"
	"storyblok-migrate/internal/importer"
	"storyblok-migrate/internal/snapshot"
)

// --- Model / State ---
type state int

const (
	stateWelcome state = iota
	statePick
	stateDownloading
	stateImporting
	stateReport
	stateError
)

// Engine is the slice of the migration engine the dashboard drives. Function
// fields keep the UI testable without a live space on either side.
type Engine struct {
	ContentTypes func() []string
	Download     func(ctx context.Context, resources []snapshot.Resource, mode snapshot.SyncMode, contentType string, progress download.ProgressFunc) error
	Import       func(ctx context.Context, mode importer.Mode) (map[string]*importer.Result, error)
}

// PickState is the resource picker: which resources to download, which sync
// mode, and an optional content-type filter for stories.
type PickState struct {
	cursor   int
	selected map[snapshot.Resource]bool
	mode     snapshot.SyncMode

	filtering   bool
	filterInput textinput.Model
	contentType string
	matches     []string
}

// DownloadState tracks per-resource progress ticks.
type DownloadState struct {
	current  map[snapshot.Resource]download.Progress
	active   snapshot.Resource
	progress progress.Model
	ch       chan download.Progress
}

type Model struct {
	state         state
	cfg           config.Config
	engine        Engine
	statusMsg     string
	err           error
	width, height int

	spinner spinner.Model
	pick    PickState
	dl      DownloadState

	results map[string]*importer.Result
}

func InitialModel(cfg config.Config, engine Engine) Model {
	m := Model{
		state:  stateWelcome,
		cfg:    cfg,
		engine: engine,
	}

	if err := cfg.Validate(); err != nil {
		m.statusMsg = "Config incomplete: " + err.Error()
	} else {
		m.statusMsg = "Source configured. Press Enter to pick resources, q to quit."
	}

	m.pick.selected = map[snapshot.Resource]bool{
		snapshot.ResourceComponents:  true,
		snapshot.ResourceStories:     true,
		snapshot.ResourceAssets:      true,
		snapshot.ResourceDatasources: true,
	}
	m.pick.mode = snapshot.SyncFull

	fi := textinput.New()
	fi.Placeholder = "content type (fuzzy)"
	fi.CharLimit = 100
	fi.Width = 40
	m.pick.filterInput = fi

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = subtleStyle
	m.spinner = sp

	m.dl.current = make(map[snapshot.Resource]download.Progress)
	m.dl.progress = progress.New(progress.WithDefaultGradient())

	return m
}

func (m Model) Init() tea.Cmd { return nil }

// pickedResources returns the selected resources in download order.
func (m Model) pickedResources() []snapshot.Resource {
	out := make([]snapshot.Resource, 0, len(snapshot.Resources))
	for _, r := range snapshot.Resources {
		if m.pick.selected[r] {
			out = append(out, r)
		}
	}
	return out
}
