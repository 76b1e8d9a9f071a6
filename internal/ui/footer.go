package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/glebovdev/tunequeue/internal/playback"
)

// SnapshotSource provides the session state rendered in the status line.
type SnapshotSource interface {
	Snapshot() playback.Snapshot
}

type StatusRenderer struct {
	source        SnapshotSource
	animFrame     int
	maxAnimFrame  int
	tickCount     int
	ticksPerFrame int

	mu             sync.Mutex
	notice         string
	noticeTicks    int
	ticksPerNotice int

	primaryColor string
}

func NewStatusRenderer(source SnapshotSource) *StatusRenderer {
	return &StatusRenderer{
		source:         source,
		maxAnimFrame:   4,
		ticksPerFrame:  8,  // Slow down animation (8 ticks per frame)
		ticksPerNotice: 30, // Notices stay ~3 seconds at 10 ticks per second
	}
}

func (s *StatusRenderer) SetPrimaryColor(color string) {
	s.primaryColor = color
}

// SetNotice shows a transient message in place of the mode flags.
func (s *StatusRenderer) SetNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = msg
	s.noticeTicks = s.ticksPerNotice
}

func (s *StatusRenderer) currentNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

func (s *StatusRenderer) AdvanceAnimation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickCount++
	if s.tickCount >= s.ticksPerFrame {
		s.tickCount = 0
		s.animFrame = (s.animFrame + 1) % s.maxAnimFrame
	}

	if s.noticeTicks > 0 {
		s.noticeTicks--
		if s.noticeTicks == 0 {
			s.notice = ""
		}
	}
}

func (s *StatusRenderer) frame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animFrame
}

func (s *StatusRenderer) Render() string {
	if s.source == nil {
		return s.renderIdle(playback.Snapshot{})
	}

	snap := s.source.Snapshot()

	switch snap.State {
	case playback.StateLoading:
		return s.renderLoading(snap)
	case playback.StatePlaying:
		return s.renderPlaying(snap)
	case playback.StatePaused:
		return s.renderPaused(snap)
	case playback.StateStopped:
		return s.renderStopped(snap)
	default:
		return s.renderIdle(snap)
	}
}

func (s *StatusRenderer) commonParts(snap playback.Snapshot) []string {
	var parts []string
	if snap.Muted {
		parts = append(parts, "[red]MUTED[-]")
	}
	if flags := modeFlags(snap.Shuffle, snap.Loop); flags != "" {
		parts = append(parts, flags)
	}
	if notice := s.currentNotice(); notice != "" {
		parts = append(parts, tview.Escape(notice))
	}
	return parts
}

func (s *StatusRenderer) renderIdle(snap playback.Snapshot) string {
	parts := append([]string{"○ IDLE"}, s.commonParts(snap)...)
	return joinParts(append(parts, "Select a track"))
}

func (s *StatusRenderer) renderLoading(snap playback.Snapshot) string {
	circles := []string{"◐", "◓", "◑", "◒"}
	parts := append([]string{circles[s.frame()] + " LOADING"}, s.commonParts(snap)...)
	return joinParts(parts)
}

func (s *StatusRenderer) renderPlaying(snap playback.Snapshot) string {
	dots := []string{"●", "◉", "○", "◉"}
	dot := dots[s.frame()]

	if s.primaryColor != "" {
		dot = fmt.Sprintf("[%s]%s[-]", s.primaryColor, dot)
	}

	parts := append([]string{dot + " PLAYING"}, s.commonParts(snap)...)
	parts = append(parts, queuePosition(snap.Index, len(snap.Queue)))
	return joinParts(parts)
}

func (s *StatusRenderer) renderPaused(snap playback.Snapshot) string {
	parts := append([]string{PauseIcon + " PAUSED"}, s.commonParts(snap)...)
	parts = append(parts, queuePosition(snap.Index, len(snap.Queue)))
	return joinParts(parts)
}

func (s *StatusRenderer) renderStopped(snap playback.Snapshot) string {
	parts := append([]string{"■ STOPPED"}, s.commonParts(snap)...)
	return joinParts(parts)
}

func modeFlags(shuffle, loop bool) string {
	var flags []string
	if shuffle {
		flags = append(flags, "SHUFFLE")
	}
	if loop {
		flags = append(flags, "LOOP")
	}
	return strings.Join(flags, " ")
}

func queuePosition(index, length int) string {
	if index < 0 || length == 0 {
		return fmt.Sprintf("-/%d", length)
	}
	return fmt.Sprintf("%d/%d", index+1, length)
}

func joinParts(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += " │ " + parts[i]
	}
	return result
}

func getPlaybackHint(state playback.State, keyColor string) string {
	switch state {
	case playback.StatePaused:
		return fmt.Sprintf("[%s]Enter[-] play  [%s]Space[-] resume", keyColor, keyColor)
	case playback.StatePlaying, playback.StateLoading:
		return fmt.Sprintf("[%s]Enter[-] play  [%s]Space[-] pause", keyColor, keyColor)
	default:
		return fmt.Sprintf("[%s]Space[-] play", keyColor)
	}
}

func (ui *UI) getHelpText() string {
	keyColor := ui.colors.helpHotkey.String()
	snap := ui.controller.Snapshot()

	muteText := "mute"
	if snap.Muted {
		muteText = "unmute"
	}

	return fmt.Sprintf(" %s  [%s]n/p[-] next/prev  [%s]/[-] search  [%s]m[-] %s  [%s]?[-] help  [%s]q[-] quit ",
		getPlaybackHint(snap.State, keyColor), keyColor, keyColor, keyColor, muteText, keyColor, keyColor)
}

func (ui *UI) handleFooterResize(width int) {
	isWide := width >= FooterBreakpoint
	wasWide := ui.lastFooterWidth >= FooterBreakpoint

	if ui.lastFooterWidth > 0 && isWide != wasWide && ui.contentLayout != nil {
		newHeight := FooterHeightWide
		if !isWide {
			newHeight = FooterHeightNarrow
		}
		ui.contentLayout.ResizeItem(ui.helpPanel, newHeight, 0)
	}
	ui.lastFooterWidth = width
}

func (ui *UI) fillRect(screen tcell.Screen, x, y, width, height int, bg tcell.Color) {
	style := tcell.StyleDefault.Background(bg)
	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (ui *UI) drawWideFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpWidth := width / 2
	statusWidth := width - helpWidth

	ui.fillRect(screen, x, y, helpWidth, height, ui.colors.helpBackground)
	ui.fillRect(screen, x+helpWidth, y, statusWidth, height, ui.colors.background)

	centerY := y + height/2
	tview.Print(screen, helpText, x, centerY, helpWidth, tview.AlignCenter, ui.colors.helpForeground)
	tview.Print(screen, statusText, x+helpWidth, centerY, statusWidth-2, tview.AlignRight, ui.colors.foreground)
}

func (ui *UI) drawNarrowFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpHeight := height / 2
	if helpHeight < 1 {
		helpHeight = 1
	}
	statusHeight := height - helpHeight
	helpBoxEnd := y + helpHeight

	ui.fillRect(screen, x, y, width, helpHeight, ui.colors.helpBackground)
	ui.fillRect(screen, x, helpBoxEnd, width, statusHeight, ui.colors.background)

	tview.Print(screen, helpText, x, y+helpHeight/2, width, tview.AlignCenter, ui.colors.helpForeground)

	if statusHeight > 0 {
		tview.Print(screen, statusText, x, helpBoxEnd+statusHeight/2, width-2, tview.AlignRight, ui.colors.foreground)
	}
}

func (ui *UI) createFooter() *tview.Box {
	box := tview.NewBox().SetBackgroundColor(ui.colors.background)

	box.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		ui.handleFooterResize(width)

		helpText := ui.getHelpText()
		statusText := " " + ui.statusRenderer.Render() + " "

		isWide := width >= FooterBreakpoint
		usedHeight := height
		if isWide && height > FooterHeightWide {
			usedHeight = FooterHeightWide
		}

		if isWide {
			ui.drawWideFooter(screen, x, y, width, usedHeight, helpText, statusText)
		} else {
			ui.drawNarrowFooter(screen, x, y, width, height, helpText, statusText)
		}

		return x, y, width, height
	})

	return box
}
