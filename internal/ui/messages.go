package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"storyblok-migrate/internal/download"
	"storyblok-migrate/internal/importer"
	"storyblok-migrate/internal/snapshot"
)

// ---------- Messages / Cmds ----------

// downloadStartMsg carries the progress channel so Update can store it and
// begin listening before the download runs.
type downloadStartMsg struct {
	ch chan download.Progress
}

type downloadTickMsg download.Progress

type downloadDoneMsg struct {
	err error
}

type importDoneMsg struct {
	results map[string]*importer.Result
	err     error
}

func startDownloadCmd() tea.Cmd {
	return func() tea.Msg {
		return downloadStartMsg{ch: make(chan download.Progress, 256)}
	}
}

// listenDownloadProgress reads one progress update from the channel and
// returns it as a message.
func listenDownloadProgress(ch chan download.Progress) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		p, ok := <-ch
		if !ok {
			return nil
		}
		return downloadTickMsg(p)
	}
}

// runDownloadCmd performs the download and returns the final downloadDoneMsg.
func (m Model) runDownloadCmd(ch chan download.Progress) tea.Cmd {
	resources := m.pickedResources()
	mode := m.pick.mode
	contentType := m.pick.contentType
	run := m.engine.Download

	return func() tea.Msg {
		// No deadline: a large space legitimately takes hours at the paced
		// request rate. Hangs are covered by the per-request HTTP timeout.
		err := run(context.Background(), resources, mode, contentType, func(p download.Progress) {
			// Push updates in a non-blocking way.
			select {
			case ch <- p:
			default:
			}
		})
		close(ch)
		return downloadDoneMsg{err: err}
	}
}

func (m Model) runImportCmd() tea.Cmd {
	mode := importer.ModeFull
	if m.pick.mode == snapshot.SyncIncremental {
		mode = importer.ModeIncremental
	}
	run := m.engine.Import

	return func() tea.Msg {
		results, err := run(context.Background(), mode)
		return importDoneMsg{results: results, err: err}
	}
}
