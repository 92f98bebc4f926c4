package ui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"storyblok-migrate/internal/config"
	"storyblok-migrate/internal/download"
	"storyblok-migrate/internal/importer"
	"storyblok-migrate/internal/snapshot"
)

func testConfig() config.Config {
	return config.Config{
		SourceToken:     "tok",
		SpaceID:         123,
		SanityProjectID: "proj",
		SanityDataset:   "production",
		SanityToken:     "sanitytok",
		MigrationDir:    "./migration",
	}
}

func testEngine() Engine {
	return Engine{
		ContentTypes: func() []string { return []string{"article", "person", "page"} },
		Download: func(_ context.Context, _ []snapshot.Resource, _ snapshot.SyncMode, _ string, _ download.ProgressFunc) error {
			return nil
		},
		Import: func(_ context.Context, _ importer.Mode) (map[string]*importer.Result, error) {
			return nil, nil
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestWelcomeToPick(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m = press(t, m, "enter")
	if m.state != statePick {
		t.Fatalf("want pick state, got %d", m.state)
	}
}

func TestWelcomeBlocksOnInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SourceToken = ""
	m := InitialModel(cfg, testEngine())
	m = press(t, m, "enter")
	if m.state != stateWelcome {
		t.Fatalf("invalid config must stay on welcome, got state %d", m.state)
	}
	if !strings.Contains(m.statusMsg, "token") {
		t.Fatalf("status should name the problem: %q", m.statusMsg)
	}
}

func TestPickToggleAndMode(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m = press(t, m, "enter")

	// cursor starts on components; toggle it off
	m = press(t, m, " ")
	want := []snapshot.Resource{snapshot.ResourceStories, snapshot.ResourceAssets, snapshot.ResourceDatasources}
	if got := m.pickedResources(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	if m.pick.mode != snapshot.SyncFull {
		t.Fatalf("default mode should be full, got %s", m.pick.mode)
	}
	m = press(t, m, "m")
	if m.pick.mode != snapshot.SyncIncremental {
		t.Fatalf("m should toggle mode, got %s", m.pick.mode)
	}
}

func TestPickStartsDownload(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m = press(t, m, "enter")
	next, cmd := m.Update(key("enter"))
	m = next.(Model)
	if m.state != stateDownloading {
		t.Fatalf("want downloading, got %d", m.state)
	}
	if cmd == nil {
		t.Fatal("expected a start command")
	}
}

func TestContentTypeFilterPicksTopMatch(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m = press(t, m, "enter", "/")
	if !m.pick.filtering {
		t.Fatal("slash should open the filter")
	}
	m = press(t, m, "a", "r", "t")
	if len(m.pick.matches) == 0 || m.pick.matches[0] != "article" {
		t.Fatalf("unexpected matches: %v", m.pick.matches)
	}
	m = press(t, m, "enter")
	if m.pick.filtering || m.pick.contentType != "article" {
		t.Fatalf("filter not applied: filtering=%v ct=%q", m.pick.filtering, m.pick.contentType)
	}
}

func TestDownloadProgressTicks(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m.state = stateDownloading
	m.dl.ch = make(chan download.Progress, 1)

	tick := downloadTickMsg{Resource: snapshot.ResourceStories, Done: 3, Total: 10}
	next, cmd := m.Update(tick)
	m = next.(Model)
	if got := m.dl.current[snapshot.ResourceStories]; got.Done != 3 || got.Total != 10 {
		t.Fatalf("tick not recorded: %+v", got)
	}
	if cmd == nil {
		t.Fatal("expected re-listen command")
	}
}

func TestDownloadDoneStartsImport(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m.state = stateDownloading
	next, cmd := m.Update(downloadDoneMsg{})
	m = next.(Model)
	if m.state != stateImporting {
		t.Fatalf("want importing, got %d", m.state)
	}
	if cmd == nil {
		t.Fatal("expected import command")
	}
}

func TestDownloadDoneSkipsImportWithoutDestination(t *testing.T) {
	cfg := testConfig()
	cfg.SanityToken = ""
	m := InitialModel(cfg, testEngine())
	m.state = stateDownloading
	next, _ := m.Update(downloadDoneMsg{})
	m = next.(Model)
	if m.state != stateReport {
		t.Fatalf("download-only run should end at report, got %d", m.state)
	}
}

func TestDownloadErrorShowsErrorScreen(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m.state = stateDownloading
	next, _ := m.Update(downloadDoneMsg{err: errors.New("boom")})
	m = next.(Model)
	if m.state != stateError || m.err == nil {
		t.Fatalf("want error state, got %d err=%v", m.state, m.err)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Fatal("error view should show the failure")
	}
}

func TestImportDoneRendersReport(t *testing.T) {
	m := InitialModel(testConfig(), testEngine())
	m.state = stateImporting
	results := map[string]*importer.Result{
		"article": {Created: 2, Replaced: 1, Skipped: 3, Items: []importer.ItemResult{
			{Slug: "a", Operation: "created", Warnings: []string{"skipped embedded video block: no destination equivalent"}},
		}},
	}
	next, _ := m.Update(importDoneMsg{results: results})
	m = next.(Model)
	if m.state != stateReport {
		t.Fatalf("want report, got %d", m.state)
	}
	view := m.View()
	for _, want := range []string{"article", "created 2", "replaced 1", "skipped 3", "video"} {
		if !strings.Contains(view, want) {
			t.Fatalf("report missing %q:\n%s", want, view)
		}
	}
}

func TestEngineCallsRunWithoutDeadline(t *testing.T) {
	var dlDeadline, imDeadline bool
	eng := Engine{
		ContentTypes: func() []string { return nil },
		Download: func(ctx context.Context, _ []snapshot.Resource, _ snapshot.SyncMode, _ string, _ download.ProgressFunc) error {
			_, dlDeadline = ctx.Deadline()
			return nil
		},
		Import: func(ctx context.Context, _ importer.Mode) (map[string]*importer.Result, error) {
			_, imDeadline = ctx.Deadline()
			return nil, nil
		},
	}
	m := InitialModel(testConfig(), eng)
	m.runDownloadCmd(make(chan download.Progress, 1))()
	m.runImportCmd()()
	if dlDeadline {
		t.Fatal("download ran under a deadline; long spaces would be cut off")
	}
	if imDeadline {
		t.Fatal("import ran under a deadline; long spaces would be cut off")
	}
}

func TestFilterContentTypesFuzzy(t *testing.T) {
	types := []string{"article", "person", "landing_page"}
	if got := filterContentTypes("", types, defaultFilterCfg); !reflect.DeepEqual(got, types) {
		t.Fatalf("empty query should return all, got %v", got)
	}
	if got := filterContentTypes("person", types, defaultFilterCfg); !reflect.DeepEqual(got, []string{"person"}) {
		t.Fatalf("substring match failed: %v", got)
	}
	got := filterContentTypes("ldgpage", types, defaultFilterCfg)
	if len(got) == 0 || got[0] != "landing_page" {
		t.Fatalf("fuzzy match failed: %v", got)
	}
}
