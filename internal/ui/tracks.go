package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/playback"
	"github.com/glebovdev/tunequeue/internal/track"
)

const maxTitleWidth = 40

func (ui *UI) createTrackListTable() *tview.Table {
	table := tview.NewTable().
		SetBorders(false).
		SetSeparator(' ').
		SetSelectable(true, false).
		SetFixed(1, 0)

	table.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitleColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background).
		SetBorderPadding(1, 0, 1, 1)

	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(ui.colors.background).
		Background(ui.colors.highlight))

	headers := []struct {
		text      string
		expansion int
		align     int
	}{
		{" ", 0, tview.AlignLeft},
		{"Title", 2, tview.AlignLeft},
		{"Artist", 1, tview.AlignLeft},
		{"Album", 1, tview.AlignLeft},
		{"Time", 0, tview.AlignRight},
	}
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h.text).
			SetTextColor(ui.colors.trackListHeaderForeground).
			SetBackgroundColor(ui.colors.trackListHeaderBackground).
			SetExpansion(h.expansion).
			SetAlign(h.align).
			SetSelectable(false))
	}

	// Track selected ID for preserving selection after refresh
	table.SetSelectionChangedFunc(func(row, column int) {
		if t := ui.trackAtRow(row); t != nil {
			ui.selectedTrackID = t.ID
		}
	})

	return table
}

func (ui *UI) trackAtRow(row int) *track.Track {
	i := row - 1
	if i < 0 || i >= len(ui.rows) {
		return nil
	}
	t := ui.rows[i]
	return &t
}

func (ui *UI) selectedTrack() *track.Track {
	if ui.trackList == nil {
		return nil
	}
	row, _ := ui.trackList.GetSelection()
	return ui.trackAtRow(row)
}

// showList replaces the table contents, keeping the selection on the same track.
func (ui *UI) showList(tracks []track.Track, title string, queue bool) {
	if ui.trackList == nil {
		return
	}

	ui.rows = append([]track.Track(nil), tracks...)
	ui.listTitle = title
	ui.showingQueue = queue
	ui.playingRow = 0

	for row := ui.trackList.GetRowCount() - 1; row > 0; row-- {
		ui.trackList.RemoveRow(row)
	}

	ui.refreshTrackTable()

	if i := track.IndexOf(ui.rows, ui.selectedTrackID); i >= 0 {
		ui.trackList.Select(i+1, 0)
	} else if len(ui.rows) > 0 {
		ui.trackList.Select(1, 0)
	}
}

func (ui *UI) refreshTrackTable() {
	if ui.trackList == nil {
		return
	}

	snap := ui.controller.Snapshot()
	for i := range ui.rows {
		ui.setTrackRow(i+1, i, snap)
	}
	ui.playingRow = 0
	ui.updatePlayingIndicator()

	ui.trackList.SetTitle(listTitle(ui.listTitle, len(ui.rows), len(snap.Queue), ui.showingQueue))

	log.Debug().Int("count", len(ui.rows)).Msg("Track table refreshed")
}

func listTitle(title string, count, queueLen int, queue bool) string {
	if queue {
		return fmt.Sprintf(" Queue (%d) ", count)
	}
	if title == "" {
		title = "Tracks"
	}
	return fmt.Sprintf(" %s (%d) · Queue %d ", title, count, queueLen)
}

func (ui *UI) setTrackRow(row, index int, snap playback.Snapshot) {
	if index < 0 || index >= len(ui.rows) {
		return
	}
	t := ui.rows[index]

	color := ui.colors.foreground
	if !t.IsPlayable() {
		color = tcell.ColorDarkGray
	}

	icon := " "
	if snap.Current != nil && snap.Current.ID == t.ID {
		icon = stateIcon(snap.State)
	}
	ui.trackList.SetCell(row, 0, tview.NewTableCell(icon).
		SetTextColor(ui.colors.highlight).
		SetMaxWidth(2))

	ui.trackList.SetCell(row, 1, tview.NewTableCell(tview.Escape(truncate(orDash(t.Title), maxTitleWidth))).
		SetTextColor(color).
		SetMaxWidth(maxTitleWidth+2).
		SetExpansion(2))

	ui.trackList.SetCell(row, 2, tview.NewTableCell(tview.Escape(t.Artist)).
		SetTextColor(color).
		SetMaxWidth(30).
		SetExpansion(1))

	ui.trackList.SetCell(row, 3, tview.NewTableCell(tview.Escape(t.Album)).
		SetTextColor(color).
		SetMaxWidth(30).
		SetExpansion(1))

	ui.trackList.SetCell(row, 4, tview.NewTableCell(formatDuration(t.DurationValue())).
		SetTextColor(color).
		SetAlign(tview.AlignRight))
}

func stateIcon(state playback.State) string {
	switch state {
	case playback.StatePlaying:
		return "➤"
	case playback.StatePaused:
		return PauseIcon
	case playback.StateLoading:
		return "…"
	case playback.StateStopped:
		return "■"
	default:
		return " "
	}
}

// updatePlayingIndicator animates the row of the current track.
func (ui *UI) updatePlayingIndicator() {
	if ui.trackList == nil {
		return
	}

	snap := ui.controller.Snapshot()
	row := 0
	if snap.Current != nil {
		if i := track.IndexOf(ui.rows, snap.Current.ID); i >= 0 {
			row = i + 1
		}
	}

	if ui.playingRow > 0 && ui.playingRow != row {
		ui.setTrackRow(ui.playingRow, ui.playingRow-1, snap)
	}
	ui.playingRow = row
	if row == 0 {
		return
	}

	ui.setTrackRow(row, row-1, snap)
	if !snap.Playing {
		return
	}

	nameCell := ui.trackList.GetCell(row, 1)
	if nameCell == nil {
		return
	}

	indicator := ui.getPlayingIndicator()
	name := truncate(orDash(ui.rows[row-1].Title), maxTitleWidth-len([]rune(indicator))-1)
	nameCell.SetText(tview.Escape(name) + " " + indicator)
}

func (ui *UI) selectTrackByID(id string) bool {
	i := track.IndexOf(ui.rows, id)
	if i < 0 {
		log.Debug().Msgf("Track '%s' not in the visible list", id)
		return false
	}
	ui.trackList.Select(i+1, 0)
	return true
}

func (ui *UI) playSelected() {
	row, _ := ui.trackList.GetSelection()
	i := row - 1
	if i < 0 || i >= len(ui.rows) {
		return
	}

	t := ui.rows[i]
	if !t.IsPlayable() {
		ui.statusRenderer.SetNotice("Not playable: " + t.DisplayName())
		return
	}

	if ui.showingQueue {
		ui.controller.PlayTrack(t)
		return
	}

	log.Info().Msgf("Playing %s from %s", t.DisplayName(), ui.listTitle)
	ui.controller.PlayFromList(ui.rows, i)
}

func (ui *UI) addSelectedToQueue() {
	t := ui.selectedTrack()
	if t == nil {
		return
	}
	if !t.IsPlayable() {
		ui.statusRenderer.SetNotice("Not playable: " + t.DisplayName())
		return
	}
	ui.controller.AddToQueue(*t)
	ui.statusRenderer.SetNotice("Queued " + t.DisplayName())
}

func (ui *UI) removeSelectedFromQueue() {
	t := ui.selectedTrack()
	if t == nil {
		return
	}
	ui.controller.RemoveFromQueue(t.ID)
}

func (ui *UI) playSelectedNext() {
	t := ui.selectedTrack()
	if t == nil {
		return
	}
	snap := ui.controller.Snapshot()
	if track.IndexOf(snap.Queue, t.ID) < 0 {
		if !t.IsPlayable() {
			ui.statusRenderer.SetNotice("Not playable: " + t.DisplayName())
			return
		}
		ui.controller.AddToQueue(*t)
	}
	ui.controller.MoveToNextInQueue(t.ID)
	ui.statusRenderer.SetNotice("Up next: " + t.DisplayName())
}

func (ui *UI) openSelectedAlbum() {
	t := ui.selectedTrack()
	if t == nil {
		return
	}
	if t.AlbumID == "" {
		ui.statusRenderer.SetNotice("No album for " + t.DisplayName())
		return
	}

	albumID := t.AlbumID
	ui.loadView(func(ctx context.Context) ([]track.Track, error) {
		return ui.catalog.Album(ctx, albumID)
	})
}

func (ui *UI) toggleQueueView() {
	if ui.showingQueue {
		_, title := ui.catalog.Source()
		ui.showList(ui.catalog.GetCachedTracks(), title, false)
		return
	}
	ui.showList(ui.controller.Snapshot().Queue, "Queue", true)
}
