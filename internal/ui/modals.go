package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/glebovdev/tunequeue/internal/config"
)

func friendlyErrorMessage(errStr string) string {
	if strings.Contains(errStr, "no such host") {
		return "Unable to connect to server.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused by server.\nThe service may be temporarily unavailable."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timed out.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "network is unreachable") || strings.Contains(errStr, "network read error") {
		return "Network is unreachable.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "api rejected credentials") || strings.Contains(errStr, "status 401") {
		return "Access denied (401).\nCheck the API token in your config."
	}
	if strings.Contains(errStr, "status 403") {
		return "Access forbidden (403)."
	}
	if strings.Contains(errStr, "status 404") {
		return "Not found (404)."
	}

	if idx := strings.Index(errStr, ": dial"); idx > 0 {
		return errStr[:idx]
	}
	if len(errStr) > 100 {
		return errStr[:100] + "..."
	}
	return errStr
}

// showError reports a failed catalog request. Retrying reloads the library.
func (ui *UI) showError(err error) {
	ui.showErrorModal("Request Error", friendlyErrorMessage(err.Error()), func() {
		ui.loadView(ui.catalog.LoadLibrary)
	})
}

func (ui *UI) showErrorModal(title, message string, onRetry func()) {
	hint := "[::d]Press [::b]Esc[::d] to dismiss[::-]"
	if onRetry != nil {
		hint = "[::d]Press [::b]R[::d] to retry  •  Press [::b]Esc[::d] to dismiss[::-]"
	}

	body := ui.modalText(fmt.Sprintf("\n[::b]%s[::-]\n\n%s", title, tview.Escape(message)), tview.AlignCenter)
	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(ui.modalHint(hint), 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := ui.modalFrame(content, " Error ", ui.colors.highlight)
	frame.SetBorders(0, 0, 1, 1, 1, 1)

	ui.presentModal("error-modal", frame, 50, errorModalHeight(message), func(event *tcell.EventKey) bool {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyEnter:
			return true
		case tcell.KeyRune:
			if onRetry != nil && (event.Rune() == 'r' || event.Rune() == 'R') {
				defer onRetry()
				return true
			}
		}
		return false
	})
}

func errorModalHeight(message string) int {
	height := 10
	lines := strings.Count(message, "\n") + 1
	if lines > 2 {
		height += lines - 2
	}
	if height > 15 {
		height = 15
	}
	return height
}

func (ui *UI) modalText(text string, align int) *tview.TextView {
	view := tview.NewTextView().
		SetTextAlign(align).
		SetDynamicColors(true).
		SetWordWrap(true).
		SetText(text)
	view.SetTextColor(ui.colors.foreground)
	view.SetBackgroundColor(ui.colors.modalBackground)
	return view
}

func (ui *UI) modalHint(text string) *tview.TextView {
	hint := ui.modalText(text, tview.AlignCenter)
	hint.SetTextColor(tcell.ColorDarkGray)
	return hint
}

func (ui *UI) modalFrame(content tview.Primitive, title string, border tcell.Color) *tview.Frame {
	frame := tview.NewFrame(content)
	frame.SetBorder(true).
		SetBorderColor(border).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(title).
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)
	return frame
}

// presentModal centers frame over the main page. Keys for which dismiss
// returns true close the modal and give focus back to the track list.
func (ui *UI) presentModal(page string, frame tview.Primitive, width, height int, dismiss func(*tcell.EventKey) bool) {
	column := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(frame, height, 0, true).
		AddItem(nil, 0, 1, false)

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(column, width, 0, true).
		AddItem(nil, 0, 1, false)
	modal.SetBackgroundColor(ui.colors.background)

	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if !dismiss(event) {
			return event
		}
		ui.pages.RemovePage(page)
		ui.app.SetFocus(ui.trackList)
		return nil
	})

	ui.pages.AddPage(page, modal, true, true)
	ui.app.SetFocus(modal)
}

func (ui *UI) showHelpModal() {
	k := ui.colors.helpHotkey.String()

	configPath, _ := config.GetConfigPath()

	helpText := fmt.Sprintf(`[::b]KEYBOARD SHORTCUTS[::-]

[%[1]s]PLAYBACK[-]
  [%[1]s]Enter[-]      Play selected track
  [%[1]s]Space[-]      Play / Pause
  [%[1]s]n[-] / [%[1]s]p[-]      Next / Previous
  [%[1]s]←[-] / [%[1]s]→[-]      Seek 5s back / forward
  [%[1]s]s[-]          Toggle shuffle
  [%[1]s]l[-]          Toggle loop

[%[1]s]VOLUME[-]
  [%[1]s]+[-] / [%[1]s]-[-]      Volume up / down
  [%[1]s]m[-]          Mute / Unmute

[%[1]s]QUEUE[-]
  [%[1]s]a[-]          Add to queue
  [%[1]s]N[-]          Play next
  [%[1]s]x[-]          Remove from queue
  [%[1]s]c[-]          Clear queue
  [%[1]s]v[-] / [%[1]s]Tab[-]    Show queue / list

[%[1]s]LIBRARY[-]
  [%[1]s]/[-]          Search
  [%[1]s]L[-]          Liked songs
  [%[1]s]g[-]          Whole library
  [%[1]s]o[-]          Open album of selected track

[%[1]s]APPLICATION[-]
  [%[1]s]?[-]          Show this help
  [%[1]s]i[-]          About %[2]s
  [%[1]s]q[-] / [%[1]s]Esc[-]    Quit

[%[1]s]CONFIG[-]: %[3]s`,
		k, config.AppTitle, configPath)

	ui.showInfoModal("Help", helpText)
}

func (ui *UI) showAboutModal() {
	linkColor := "skyblue"
	dimColor := "gray"

	aboutText := fmt.Sprintf(`[::b]%s[::-]
[%s]%s[-]

Version: %s
Author:  %s
Project: [%s:::%s]%s[-:::-]
License: MIT

───────────────────────────────────────────

[%s]Listened this device:[-] %s`,
		config.AppTitle,
		dimColor, config.AppTagline,
		config.AppVersion,
		config.AppAuthor,
		linkColor, config.AppProjectURL, config.AppProjectShort,
		dimColor, formatDuration(ui.controller.Snapshot().ListeningTime))

	ui.showInfoModal("About", aboutText)
}

// showInfoModal shows a text box that closes on any key.
func (ui *UI) showInfoModal(title, message string) {
	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.modalText("\n"+message, tview.AlignLeft), 0, 1, false).
		AddItem(nil, 2, 0, false).
		AddItem(ui.modalHint("[::d]Press any key to close[::-]"), 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := ui.modalFrame(content, " "+title+" ", ui.colors.borders)
	frame.SetBorders(1, 0, 1, 1, 2, 2)

	height := strings.Count(message, "\n") + 11
	if height > 40 {
		height = 40
	}

	ui.presentModal("modal", frame, 50, height, func(*tcell.EventKey) bool { return true })
}

// showInitialErrorScreen replaces the whole screen when the library cannot be
// loaded at startup.
func (ui *UI) showInitialErrorScreen(title, message string, onRetry, onQuit func()) {
	frame := ui.modalFrame(
		ui.modalText(fmt.Sprintf("[::b]%s[::-]\n\n%s", title, tview.Escape(message)), tview.AlignCenter),
		" Connection Error ", ui.colors.highlight)
	frame.SetBorders(2, 2, 2, 2, 2, 2)

	hint := ui.modalText("[::d]Press [::b]R[::d] to retry  •  Press [::b]Q[::d] to quit[::-]", tview.AlignCenter)
	hint.SetBackgroundColor(ui.colors.background)

	row := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(frame, 60, 1, true).
		AddItem(nil, 0, 1, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(row, 10, 1, true).
		AddItem(hint, 2, 0, false).
		AddItem(nil, 0, 1, false)
	layout.SetBackgroundColor(ui.colors.background)

	call := func(f func()) *tcell.EventKey {
		if f != nil {
			f()
		}
		return nil
	}

	layout.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape:
			return call(onQuit)
		case event.Key() != tcell.KeyRune:
			return event
		}
		switch event.Rune() {
		case 'r', 'R':
			return call(onRetry)
		case 'q', 'Q':
			return call(onQuit)
		}
		return event
	})

	ui.app.SetRoot(layout, true)
	ui.app.SetFocus(layout)
}

func (ui *UI) handleInitialError(err error) {
	ui.showInitialErrorScreen(
		"Unable to Load Library",
		friendlyErrorMessage(err.Error()),
		func() { // onRetry
			ui.app.SetRoot(ui.loadingScreen, true)
			go func() {
				if err := ui.loadLibraryAndInitUI(); err != nil {
					ui.app.QueueUpdateDraw(func() {
						ui.handleInitialError(err)
					})
				}
			}()
		},
		func() { // onQuit
			ui.app.Stop()
		},
	)
}
