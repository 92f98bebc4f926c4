package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"storyblok-migrate/internal/download"
	"storyblok-migrate/internal/snapshot"
)

// ---------- Update ----------
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateWelcome:
			return m.handleWelcomeKey(key)
		case statePick:
			return m.handlePickKey(msg)
		case stateDownloading, stateImporting:
			// engine is running; only quit is allowed
			if key == "q" {
				return m, tea.Quit
			}
		case stateReport, stateError:
			if key == "q" || key == "enter" || key == "esc" {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w := m.width - 10
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.dl.progress.Width = w
		}

	case spinner.TickMsg:
		if m.state == stateDownloading || m.state == stateImporting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case downloadStartMsg:
		m.dl.ch = msg.ch
		return m, tea.Batch(listenDownloadProgress(m.dl.ch), m.runDownloadCmd(m.dl.ch))

	case downloadTickMsg:
		p := download.Progress(msg)
		m.dl.current[p.Resource] = p
		m.dl.active = p.Resource
		return m, listenDownloadProgress(m.dl.ch)

	case downloadDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		if err := m.cfg.ValidateImport(); err != nil {
			// Download-only run: snapshot is on disk, destination not
			// configured.
			m.statusMsg = "Download complete. " + err.Error() + " - skipping import."
			m.state = stateReport
			return m, nil
		}
		m.state = stateImporting
		m.statusMsg = "Importing documents..."
		return m, tea.Batch(m.spinner.Tick, m.runImportCmd())

	case importDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.results = msg.results
		m.statusMsg = "Import complete."
		m.state = stateReport
		return m, nil
	}

	return m, nil
}

// ---------- Handlers ----------

func (m Model) handleWelcomeKey(key string) (Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "enter":
		if err := m.cfg.Validate(); err != nil {
			m.statusMsg = "Cannot start: " + err.Error()
			return m, nil
		}
		m.state = statePick
		m.statusMsg = "Pick resources to download."
		return m, nil
	}
	return m, nil
}

func (m Model) handlePickKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.pick.filtering {
		switch key {
		case "esc":
			m.pick.filtering = false
			m.pick.filterInput.Blur()
			if strings.TrimSpace(m.pick.filterInput.Value()) == "" {
				m.pick.contentType = ""
			}
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.pick.filterInput.Value())
			if q == "" {
				m.pick.contentType = ""
			} else if len(m.pick.matches) > 0 {
				// top fuzzy match wins
				m.pick.contentType = m.pick.matches[0]
			} else {
				m.pick.contentType = q
			}
			m.pick.filtering = false
			m.pick.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.pick.filterInput, cmd = m.pick.filterInput.Update(msg)
			m.pick.matches = m.contentTypeMatches(m.pick.filterInput.Value())
			return m, cmd
		}
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "j", "down":
		if m.pick.cursor < len(snapshot.Resources)-1 {
			m.pick.cursor++
		}
	case "k", "up":
		if m.pick.cursor > 0 {
			m.pick.cursor--
		}
	case " ":
		res := snapshot.Resources[m.pick.cursor]
		m.pick.selected[res] = !m.pick.selected[res]
	case "m":
		if m.pick.mode == snapshot.SyncFull {
			m.pick.mode = snapshot.SyncIncremental
		} else {
			m.pick.mode = snapshot.SyncFull
		}
	case "f", "/":
		m.pick.filtering = true
		m.pick.filterInput.SetValue(m.pick.contentType)
		m.pick.filterInput.CursorEnd()
		m.pick.filterInput.Focus()
		m.pick.matches = m.contentTypeMatches(m.pick.filterInput.Value())
		return m, nil
	case "F":
		m.pick.contentType = ""
		m.pick.filterInput.SetValue("")
		return m, nil
	case "enter":
		if len(m.pickedResources()) == 0 {
			m.statusMsg = "Nothing selected."
			return m, nil
		}
		m.state = stateDownloading
		m.statusMsg = "Downloading..."
		return m, tea.Batch(m.spinner.Tick, startDownloadCmd())
	}
	return m, nil
}

func (m Model) contentTypeMatches(q string) []string {
	if m.engine.ContentTypes == nil {
		return nil
	}
	return filterContentTypes(q, m.engine.ContentTypes(), defaultFilterCfg)
}
