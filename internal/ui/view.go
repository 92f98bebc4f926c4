package ui

import (
	"fmt"
	"sort"
	"strings"

	"storyblok-migrate/internal/snapshot"
)

// ---------- View ----------
func (m Model) View() string {
	switch m.state {
	case stateWelcome:
		return m.viewWelcome()
	case statePick:
		return m.viewPick()
	case stateDownloading:
		return m.viewDownloading()
	case stateImporting:
		return m.viewImporting()
	case stateReport:
		return m.viewReport()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewWelcome() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("sbmigrate") + "\n")
	b.WriteString(subtitleStyle.Render("Storyblok → Sanity content migration") + "\n")

	box := fmt.Sprintf("Space: %d\nMigration dir: %s", m.cfg.SpaceID, m.cfg.MigrationDir)
	b.WriteString(welcomeBoxStyle.Render(box) + "\n")
	b.WriteString(renderFooter(m.statusMsg, "enter: start  q: quit"))
	return b.String()
}

func (m Model) viewPick() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Resources") + "\n")

	for i, res := range snapshot.Resources {
		mark := "[ ]"
		if m.pick.selected[res] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, res)
		if i == m.pick.cursor {
			b.WriteString(selectedItemStyle.Render(line) + "\n")
		} else {
			b.WriteString(itemStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + subtleStyle.Render("mode: "+string(m.pick.mode)) + "\n")
	if m.pick.filtering {
		b.WriteString("\ncontent type: " + m.pick.filterInput.View() + "\n")
		if len(m.pick.matches) > 0 {
			shown := m.pick.matches
			if len(shown) > 5 {
				shown = shown[:5]
			}
			b.WriteString(subtleStyle.Render("matches: "+strings.Join(shown, ", ")) + "\n")
		}
	} else if m.pick.contentType != "" {
		b.WriteString(subtleStyle.Render("content type filter: "+m.pick.contentType) + "\n")
	}

	b.WriteString("\n" + renderFooter(m.statusMsg,
		"space: toggle  m: mode  /: content-type filter  F: clear filter",
		"enter: download  q: quit"))
	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Downloading "+m.spinner.View()) + "\n")

	for _, res := range m.pickedResources() {
		p, ok := m.dl.current[res]
		if !ok {
			b.WriteString(fmt.Sprintf("  %-12s %s\n", res, subtleStyle.Render("waiting")))
			continue
		}
		ratio := 0.0
		if p.Total > 0 {
			ratio = float64(p.Done) / float64(p.Total)
		}
		bar := m.dl.progress.ViewAs(ratio)
		b.WriteString(fmt.Sprintf("  %-12s %s %d/%d\n", res, bar, p.Done, p.Total))
	}

	b.WriteString("\n" + renderFooter(m.statusMsg, "q: quit (resume later - progress is checkpointed)"))
	return b.String()
}

func (m Model) viewImporting() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Importing "+m.spinner.View()) + "\n")
	b.WriteString(subtleStyle.Render("Writing documents to the destination dataset...") + "\n")
	b.WriteString("\n" + renderFooter(m.statusMsg))
	return b.String()
}

func (m Model) viewReport() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Migration report") + "\n\n")

	families := make([]string, 0, len(m.results))
	for f := range m.results {
		families = append(families, f)
	}
	sort.Strings(families)

	for _, f := range families {
		r := m.results[f]
		b.WriteString(listHeaderStyle.Render(f) + "\n")
		b.WriteString(fmt.Sprintf("  %s  %s  %s  %s  %s\n",
			createdStyle.Render(fmt.Sprintf("created %d", r.Created)),
			updatedStyle.Render(fmt.Sprintf("replaced %d", r.Replaced)),
			skippedStyle.Render(fmt.Sprintf("skipped %d", r.Skipped)),
			deletedStyle.Render(fmt.Sprintf("deleted %d", r.Deleted)),
			errorStyle.Render(fmt.Sprintf("errors %d", r.Errors))))
		for _, it := range r.Items {
			if it.Err != nil {
				b.WriteString("  " + errorStyle.Render(fmt.Sprintf("✗ %s: %v", it.Slug, it.Err)) + "\n")
			}
			for _, w := range it.Warnings {
				b.WriteString("  " + warnStyle.Render(fmt.Sprintf("! %s: %s", it.Slug, w)) + "\n")
			}
		}
	}
	if len(families) == 0 {
		b.WriteString(subtleStyle.Render("No documents imported.") + "\n")
	}

	b.WriteString("\n" + renderFooter(m.statusMsg, "q: quit"))
	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("Migration failed") + "\n\n")
	if m.err != nil {
		b.WriteString(m.err.Error() + "\n")
	}
	b.WriteString(subtleStyle.Render("Progress is checkpointed - rerun to resume.") + "\n")
	b.WriteString("\n" + renderFooter("", "q: quit"))
	return b.String()
}
