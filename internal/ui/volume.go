package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/config"
)

const volumeBarHeight = 10

// volumeBarLines splits the bar height into filled and empty lines.
func volumeBarLines(volume, height int) (filled, empty int) {
	volume = config.ClampVolume(volume)
	filled = (volume * height) / 100
	return filled, height - filled
}

func (ui *UI) buildVolumeBar(container *tview.Flex) {
	snap := ui.controller.Snapshot()
	displayVolume := snap.Volume
	isMuted := snap.Muted

	filledLines, emptyLines := volumeBarLines(displayVolume, volumeBarHeight)

	createText := func(text string, color tcell.Color) *tview.TextView {
		tv := tview.NewTextView()
		tv.SetText(text)
		tv.SetTextAlign(tview.AlignRight)
		tv.SetTextColor(color)
		tv.SetBackgroundColor(ui.colors.background)
		return tv
	}

	barColor := ui.colors.highlight
	if isMuted {
		barColor = ui.colors.mutedVolume
	}

	createBarLine := func(barText string, color tcell.Color, showPercent bool) *tview.Flex {
		line := tview.NewFlex().SetDirection(tview.FlexColumn)
		line.SetBackgroundColor(ui.colors.background)

		if showPercent {
			percentView := createText(fmt.Sprintf("%d%%", displayVolume), barColor)
			if isMuted {
				percentView.SetTextStyle(tcell.StyleDefault.
					Foreground(barColor).
					Background(ui.colors.background).
					Attributes(tcell.AttrStrikeThrough))
			}
			line.AddItem(percentView, 4, 0, false)
		} else {
			line.AddItem(createText("    ", ui.colors.foreground), 4, 0, false)
		}

		line.AddItem(createText(barText, color), 0, 1, false)

		return line
	}

	container.AddItem(createText("   max", ui.colors.foreground), 1, 0, false)

	for i := 0; i < emptyLines; i++ {
		container.AddItem(createBarLine(" ░░", ui.colors.foreground, false), 1, 0, false)
	}

	for i := 0; i < filledLines; i++ {
		container.AddItem(createBarLine(" ██", barColor, i == 0), 1, 0, false)
	}

	container.AddItem(createText("   min", ui.colors.foreground), 1, 0, false)

	container.AddItem(nil, 0, 1, false)
}

func (ui *UI) createGraphicalVolumeBar() *tview.Flex {
	volumeContainer := tview.NewFlex().SetDirection(tview.FlexRow)
	volumeContainer.SetBackgroundColor(ui.colors.background)
	ui.buildVolumeBar(volumeContainer)
	return volumeContainer
}

func (ui *UI) updateVolumeDisplay() {
	if ui.volumeView != nil {
		ui.volumeView.Clear()
		ui.buildVolumeBar(ui.volumeView)
	}
}

// adjustVolume changes the volume by delta. A muted session is unmuted instead.
func (ui *UI) adjustVolume(delta int) {
	if ui.controller.Muted() {
		ui.controller.ToggleMute()
		ui.updateVolumeDisplay()
		ui.SaveConfig()
		log.Debug().Msgf("Auto-unmuted, volume %d%%", ui.controller.Volume())
		return
	}

	volume := config.ClampVolume(ui.controller.Volume() + delta)
	ui.controller.SetVolume(volume)
	ui.updateVolumeDisplay()
	ui.SaveConfig()
	log.Debug().Msgf("Volume adjusted to %d%%", volume)
}

func (ui *UI) toggleMute() {
	ui.controller.ToggleMute()
	ui.updateVolumeDisplay()
	ui.SaveConfig()
	log.Debug().Msgf("Muted: %v", ui.controller.Muted())
}
