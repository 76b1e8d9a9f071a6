package ui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

func (ui *UI) createSearchInput() *tview.InputField {
	input := tview.NewInputField().
		SetLabel(" / ").
		SetPlaceholder("Search tracks").
		SetFieldBackgroundColor(ui.colors.background).
		SetFieldTextColor(ui.colors.highlight).
		SetLabelColor(ui.colors.helpHotkey).
		SetPlaceholderTextColor(ui.colors.borders)
	input.SetBackgroundColor(ui.colors.background)

	input.SetChangedFunc(func(text string) {
		ui.scheduleSearch(text)
	})

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			ui.searchDebouncer.Flush()
		case tcell.KeyEscape:
			if input.GetText() != "" {
				input.SetText("")
			}
		}
		ui.app.SetFocus(ui.trackList)
	})

	return input
}

// scheduleSearch runs the query once typing pauses. Only the latest query
// updates the table.
func (ui *UI) scheduleSearch(query string) {
	ui.mu.Lock()
	ui.searchSeq++
	seq := ui.searchSeq
	ui.mu.Unlock()

	ui.searchDebouncer.Call(func() {
		go ui.runSearch(seq, query)
	})
}

func (ui *UI) runSearch(seq int, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), catalogRequestTimeout)
	defer cancel()

	tracks, err := ui.catalog.Search(ctx, query)

	ui.app.QueueUpdateDraw(func() {
		ui.mu.Lock()
		latest := seq == ui.searchSeq
		ui.mu.Unlock()
		if !latest {
			return
		}

		if err != nil {
			log.Warn().Err(err).Msgf("Search for %q failed", query)
			ui.statusRenderer.SetNotice("Search failed")
			return
		}

		_, title := ui.catalog.Source()
		ui.showList(tracks, title, false)
	})
}
