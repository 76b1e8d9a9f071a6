package ui

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/config"
	"github.com/glebovdev/tunequeue/internal/debounce"
	"github.com/glebovdev/tunequeue/internal/playback"
	"github.com/glebovdev/tunequeue/internal/service"
	"github.com/glebovdev/tunequeue/internal/track"
)

const (
	VolumeStep            = 5
	SeekStep              = 5 * time.Second
	HeaderHeight          = 3
	FooterHeightWide      = 3 // Wide: 1 row with padding (top + text + bottom)
	FooterHeightNarrow    = 6 // Narrow: 2 rows × 3 lines each
	CoverWidth            = 26
	CoverHeight           = 12
	PlayerPanelHeight     = 12
	FooterBreakpoint      = 130 // Width threshold for responsive footer
	SearchDebounce        = 350 * time.Millisecond
	MinLoadingDisplayTime = 1200 * time.Millisecond
	MinStatusDisplayTime  = 300 * time.Millisecond
	catalogRequestTimeout = 30 * time.Second
)

// PauseIcon uses platform-specific character (Windows renders ⏸ as emoji)
var PauseIcon = func() string {
	if runtime.GOOS == "windows" {
		return "❚❚"
	}
	return "⏸"
}()

type UI struct {
	app             *tview.Application
	controller      *playback.Controller
	catalog         *service.CatalogService
	config          *config.Config
	trackList       *tview.Table
	searchInput     *tview.InputField
	helpPanel       *tview.Box
	contentLayout   *tview.Flex
	playerPanel     *tview.Flex
	titleView       *tview.TextView
	artistView      *tview.TextView
	albumView       *tview.TextView
	progressView    *tview.TextView
	artworkPanel    *tview.Image
	volumeView      *tview.Flex
	mainLayout      *tview.Flex
	loadingScreen   *tview.Flex
	loadingText     *tview.TextView
	progressBar     *tview.TextView
	pages           *tview.Pages
	stopUpdates     chan struct{}
	searchDebouncer *debounce.Debouncer
	searchSeq       int
	rows            []track.Track // Tracks shown in the table, row i+1
	showingQueue    bool
	listTitle       string
	selectedTrackID string
	playingRow      int
	artworkURL      string
	autostart       bool
	lastFooterWidth int // Track width to detect layout changes
	mu              sync.Mutex
	animationFrame  int
	playingSpinner  *PlayingSpinner
	statusRenderer  *StatusRenderer
	colors          struct {
		background                tcell.Color
		foreground                tcell.Color
		borders                   tcell.Color
		highlight                 tcell.Color
		mutedVolume               tcell.Color
		headerBackground          tcell.Color
		trackListHeaderBackground tcell.Color
		trackListHeaderForeground tcell.Color
		helpBackground            tcell.Color
		helpForeground            tcell.Color
		helpHotkey                tcell.Color
		progressFill              tcell.Color
		progressEmpty             tcell.Color
		modalBackground           tcell.Color
	}
}

func NewUI(controller *playback.Controller, catalog *service.CatalogService, cfg *config.Config) *UI {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ui := &UI{
		app:             tview.NewApplication(),
		controller:      controller,
		catalog:         catalog,
		config:          cfg,
		stopUpdates:     make(chan struct{}),
		searchDebouncer: debounce.New(SearchDebounce, nil),
		autostart:       cfg.Autostart,
	}

	ui.colors.background = config.GetColor(cfg.Theme.Background)
	ui.colors.foreground = config.GetColor(cfg.Theme.Foreground)
	ui.colors.borders = config.GetColor(cfg.Theme.Borders)
	ui.colors.highlight = config.GetColor(cfg.Theme.Highlight)
	ui.colors.mutedVolume = config.GetColor(cfg.Theme.MutedVolume)
	ui.colors.headerBackground = config.GetColor(cfg.Theme.HeaderBackground)
	ui.colors.trackListHeaderBackground = config.GetColor(cfg.Theme.TrackListHeaderBackground)
	ui.colors.trackListHeaderForeground = config.GetColor(cfg.Theme.TrackListHeaderForeground)
	ui.colors.helpBackground = config.GetColor(cfg.Theme.HelpBackground)
	ui.colors.helpForeground = config.GetColor(cfg.Theme.HelpForeground)
	ui.colors.helpHotkey = config.GetColor(cfg.Theme.HelpHotkey)
	ui.colors.progressFill = config.GetColor(cfg.Theme.ProgressFill)
	ui.colors.progressEmpty = config.GetColor(cfg.Theme.ProgressEmpty)
	ui.colors.modalBackground = config.GetColor(cfg.Theme.ModalBackground)

	ui.statusRenderer = NewStatusRenderer(controller)
	ui.statusRenderer.SetPrimaryColor(ui.colors.highlight.String())

	return ui
}

// SaveConfig writes the session preferences back to the config file.
func (ui *UI) SaveConfig() {
	snap := ui.controller.Snapshot()

	ui.mu.Lock()
	ui.config.Volume = snap.Volume
	ui.config.Muted = snap.Muted
	ui.config.Shuffle = snap.Shuffle
	ui.config.Loop = snap.Loop
	ui.mu.Unlock()

	if err := ui.config.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save config")
	}
}

func (ui *UI) safeCloseChannel() {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.stopUpdates != nil {
		select {
		case <-ui.stopUpdates:
			// Already closed
		default:
			close(ui.stopUpdates)
		}
		ui.stopUpdates = nil
	}
}

func (ui *UI) stop() {
	ui.catalog.StopPeriodicRefresh()
	ui.searchDebouncer.Stop()
	ui.safeCloseChannel()
	ui.SaveConfig()
	ui.app.Stop()
}

// Shutdown stops the UI gracefully from external callers (e.g., signal handlers).
func (ui *UI) Shutdown() {
	ui.app.QueueUpdateDraw(func() {
		ui.stop()
	})
}

func (ui *UI) Run() error {
	ui.setupLoadingScreen()
	ui.app.SetRoot(ui.loadingScreen, true)
	ui.configureScreen()

	go ui.initAsync()

	return ui.app.Run()
}

func (ui *UI) configureScreen() {
	bgStyle := tcell.StyleDefault.Background(ui.colors.background)
	ui.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		screen.SetStyle(bgStyle)
		screen.Clear()
		return false
	})

	var titleSet sync.Once
	ui.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		titleSet.Do(func() { screen.SetTitle(config.AppTitle) })
	})
}

func (ui *UI) initAsync() {
	if err := ui.loadLibraryAndInitUI(); err != nil {
		ui.app.QueueUpdateDraw(func() {
			ui.handleInitialError(err)
		})
	}
}

func (ui *UI) setupLoadingScreen() {
	ui.loadingText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(fmt.Sprintf("Connecting to %s... (1/3)", config.AppTitle))
	ui.loadingText.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)

	ui.progressBar = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(renderProgressBar(0))
	ui.progressBar.SetTextColor(ui.colors.highlight).
		SetBackgroundColor(ui.colors.background)

	content := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.loadingText, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.progressBar, 1, 0, false)
	content.SetBackgroundColor(ui.colors.background)

	ui.loadingScreen = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(content, 3, 0, false).
		AddItem(nil, 0, 1, false)

	ui.loadingScreen.SetBackgroundColor(ui.colors.background)
}

func renderProgressBar(percent int) string {
	const width = 30
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := (percent * width) / 100
	empty := width - filled
	return strings.Repeat("█", filled) + strings.Repeat("░", empty)
}

func (ui *UI) animateProgress(fromPercent, toPercent int, duration time.Duration) {
	steps := toPercent - fromPercent
	if steps <= 0 {
		return
	}
	stepDuration := duration / time.Duration(steps)
	lastBar := renderProgressBar(fromPercent)

	for p := fromPercent + 1; p <= toPercent; p++ {
		time.Sleep(stepDuration)
		if bar := renderProgressBar(p); bar != lastBar {
			ui.app.QueueUpdateDraw(func() {
				ui.progressBar.SetText(bar)
			})
			lastBar = bar
		}
	}
}

func (ui *UI) loadLibraryAndInitUI() error {
	const totalStages = 3
	stagePercent := func(stage int) int { return (stage * 100) / totalStages }

	startTime := time.Now()

	animDone := make(chan struct{})
	go func() {
		ui.animateProgress(stagePercent(0), stagePercent(1), MinStatusDisplayTime)
		close(animDone)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), catalogRequestTimeout)
	tracks, err := ui.catalog.LoadLibrary(ctx)
	cancel()
	if err != nil {
		<-animDone
		return errors.Wrap(err, "failed to load library")
	}
	log.Debug().Msgf("Loaded %d tracks in %v", len(tracks), time.Since(startTime))

	<-animDone

	ui.app.QueueUpdateDraw(func() {
		ui.loadingText.SetText("Restoring session... (2/3)")
	})

	ui.controller.SetQueue(track.FilterPlayable(tracks))
	ui.controller.Restore()

	ui.animateProgress(stagePercent(1), stagePercent(2), MinStatusDisplayTime)

	ui.app.QueueUpdateDraw(func() {
		ui.loadingText.SetText("Building interface... (3/3)")
	})

	ui.app.QueueUpdateDraw(func() {
		ui.setupUI()
		ui.showList(tracks, "Library", false)
	})
	ui.catalog.StartPeriodicRefresh(ui.config.Library.RefreshInterval(), ui.onTracksRefreshed)

	ui.animateProgress(stagePercent(2), stagePercent(3), MinStatusDisplayTime)

	// Floor, not ceiling: wait only if real work finished early.
	if elapsed := time.Since(startTime); elapsed < MinLoadingDisplayTime {
		time.Sleep(MinLoadingDisplayTime - elapsed)
	}
	log.Debug().Msgf("Total loading time: %v", time.Since(startTime))

	ui.app.QueueUpdateDraw(func() {
		ui.app.SetRoot(ui.pages, true).EnableMouse(true)
		ui.app.SetFocus(ui.trackList)

		snap := ui.controller.Snapshot()
		ui.updateNowPlaying(snap)
		if snap.Current != nil {
			ui.selectTrackByID(snap.Current.ID)
			if ui.autostart {
				log.Debug().Msgf("Autostart enabled, playing %s", snap.Current.ID)
				ui.controller.TogglePlayPause()
			}
		}
	})

	ui.startUpdates()
	go ui.consumeEvents()

	return nil
}

func (ui *UI) setupUI() {
	header := ui.createHeader()

	ui.playerPanel = tview.NewFlex().SetDirection(tview.FlexRow)
	ui.playerPanel.SetBackgroundColor(ui.colors.background)
	ui.playerPanel.AddItem(ui.createContentPanel(), 0, 1, false)

	ui.searchInput = ui.createSearchInput()
	ui.trackList = ui.createTrackListTable()

	ui.helpPanel = ui.createFooter()

	ui.contentLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, HeaderHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.playerPanel, PlayerPanelHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.searchInput, 1, 0, false).
		AddItem(ui.trackList, 0, 1, true).
		AddItem(ui.helpPanel, FooterHeightWide, 0, false)
	ui.contentLayout.SetBackgroundColor(ui.colors.background)

	wrapper := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 3, 0, false).
		AddItem(ui.contentLayout, 0, 1, true).
		AddItem(nil, 3, 0, false)
	wrapper.SetBackgroundColor(ui.colors.background)

	ui.mainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 1, 0, false).
		AddItem(wrapper, 0, 1, true).
		AddItem(nil, 1, 0, false)
	ui.mainLayout.SetBackgroundColor(ui.colors.background)

	ui.pages = tview.NewPages().
		AddPage("main", ui.mainLayout, true, true)
	ui.pages.SetBackgroundColor(ui.colors.background)

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.pages.HasPage("modal") || ui.pages.HasPage("error-modal") {
			return event
		}
		if ui.app.GetFocus() == ui.searchInput {
			return event
		}
		return ui.globalInputHandler(event)
	})
}

func (ui *UI) createHeader() tview.Primitive {
	titleView := tview.NewTextView()
	titleView.SetText(" " + config.AppTitle)
	titleView.SetTextAlign(tview.AlignLeft)
	titleView.SetTextColor(ui.colors.foreground)
	titleView.SetBackgroundColor(ui.colors.headerBackground)

	versionView := tview.NewTextView()
	versionView.SetText("v" + config.AppVersion + " ")
	versionView.SetTextAlign(tview.AlignRight)
	versionView.SetTextColor(ui.colors.foreground)
	versionView.SetBackgroundColor(ui.colors.headerBackground)

	textFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(titleView, 0, 1, false).
		AddItem(versionView, 10, 0, false)
	textFlex.SetBackgroundColor(ui.colors.headerBackground)

	headerFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexColumn).
			AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false).
			AddItem(textFlex, 0, 1, false).
			AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false),
			1, 0, false).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false)
	headerFlex.SetBackgroundColor(ui.colors.headerBackground)

	return headerFlex
}

func (ui *UI) newLabel(text string) *tview.TextView {
	label := tview.NewTextView()
	label.SetText(text)
	label.SetTextColor(ui.colors.foreground)
	label.SetBackgroundColor(ui.colors.background)
	label.SetWrap(false)
	return label
}

func (ui *UI) newValue() *tview.TextView {
	value := tview.NewTextView()
	value.SetDynamicColors(true)
	value.SetTextColor(ui.colors.highlight)
	value.SetBackgroundColor(ui.colors.background)
	value.SetWrap(false)
	value.SetTextStyle(tcell.StyleDefault.Background(ui.colors.background).Attributes(tcell.AttrBold))
	return value
}

func (ui *UI) createContentPanel() *tview.Flex {
	ui.artworkPanel = tview.NewImage()
	ui.artworkPanel.SetBackgroundColor(ui.colors.background)
	ui.artworkPanel.SetAlign(tview.AlignLeft, tview.AlignTop)

	ui.titleView = ui.newValue()
	ui.artistView = ui.newValue()
	ui.albumView = ui.newValue()

	ui.progressView = tview.NewTextView()
	ui.progressView.SetDynamicColors(true)
	ui.progressView.SetBackgroundColor(ui.colors.background)
	ui.progressView.SetWrap(false)

	infoContent := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.newLabel(" Title:"), 1, 0, false).
		AddItem(ui.titleView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.newLabel(" Artist:"), 1, 0, false).
		AddItem(ui.artistView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.newLabel(" Album:"), 1, 0, false).
		AddItem(ui.albumView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.progressView, 1, 0, false).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.background), 0, 1, false)
	infoContent.SetBackgroundColor(ui.colors.background)

	ui.volumeView = ui.createGraphicalVolumeBar()

	// Wrap artwork in vertical flex to constrain height
	artworkWrapper := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.artworkPanel, CoverHeight, 0, false).
		AddItem(nil, 0, 1, false)
	artworkWrapper.SetBackgroundColor(ui.colors.background)

	contentFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(artworkWrapper, CoverWidth, 0, false).
		AddItem(infoContent, 0, 1, false).
		AddItem(ui.volumeView, 7, 0, false)
	contentFlex.SetBackgroundColor(ui.colors.background)

	contentWithPadding := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 4, 0, false).
		AddItem(contentFlex, 0, 1, false).
		AddItem(nil, 4, 0, false)
	contentWithPadding.SetBackgroundColor(ui.colors.background)

	return contentWithPadding
}

// updateNowPlaying redraws the track details for the current track.
func (ui *UI) updateNowPlaying(snap playback.Snapshot) {
	if ui.titleView == nil {
		return
	}

	highlight := ui.colors.highlight.String()
	if snap.Current == nil {
		ui.titleView.SetText(" -")
		ui.artistView.SetText(" -")
		ui.albumView.SetText(" -")
		ui.updateArtwork("")
	} else {
		t := snap.Current
		ui.titleView.SetText(fmt.Sprintf(" [%s]%s[-]", highlight, tview.Escape(orDash(t.Title))))
		ui.artistView.SetText(fmt.Sprintf(" [%s]%s[-]", highlight, tview.Escape(orDash(t.Artist))))
		ui.albumView.SetText(fmt.Sprintf(" [%s]%s[-]", highlight, tview.Escape(orDash(t.Album))))
		ui.updateArtwork(t.Artwork)
	}

	ui.updateProgress(snap)
}

func (ui *UI) updateProgress(snap playback.Snapshot) {
	if ui.progressView == nil {
		return
	}

	duration := snap.Duration
	if duration <= 0 && snap.Current != nil {
		duration = snap.Current.DurationValue()
	}

	_, _, width, _ := ui.progressView.GetInnerRect()
	barWidth := width - 16
	if barWidth < 10 {
		barWidth = 10
	}

	filled, empty := splitProgress(snap.Position, duration, barWidth)
	ui.progressView.SetText(fmt.Sprintf(" [%s]%s[%s]%s[-] %s / %s",
		ui.colors.progressFill.String(), strings.Repeat("━", filled),
		ui.colors.progressEmpty.String(), strings.Repeat("─", empty),
		formatDuration(snap.Position), formatDuration(duration)))
}

func (ui *UI) updateArtwork(url string) {
	if url == ui.artworkURL {
		return
	}
	ui.artworkURL = url

	if url == "" {
		ui.artworkPanel.SetImage(nil)
		return
	}

	go func() {
		img, err := ui.catalog.LoadImage(url)
		ui.app.QueueUpdateDraw(func() {
			if ui.artworkURL != url {
				return
			}
			if err != nil {
				log.Debug().Err(err).Str("url", url).Msg("Failed to load artwork")
				ui.artworkPanel.SetImage(nil)
				return
			}
			ui.artworkPanel.SetImage(img)
		})
	}()
}

type PlayingSpinner struct {
	Frames []string
	FPS    time.Duration
}

func NewPlayingSpinner() *PlayingSpinner {
	return &PlayingSpinner{
		Frames: []string{"⣾ ", "⣽ ", "⣻ ", "⢿ ", "⡿ ", "⣟ ", "⣯ ", "⣷ "},
		FPS:    time.Second / 10,
	}
}

func (ui *UI) getPlayingIndicator() string {
	if ui.playingSpinner == nil {
		ui.playingSpinner = NewPlayingSpinner()
	}

	ui.mu.Lock()
	frame := ui.animationFrame
	ui.mu.Unlock()

	return ui.playingSpinner.Frames[frame%len(ui.playingSpinner.Frames)]
}

// startUpdates drives the spinner and polls the controller for the position.
func (ui *UI) startUpdates() {
	if ui.playingSpinner == nil {
		ui.playingSpinner = NewPlayingSpinner()
	}

	ui.mu.Lock()
	stopCh := ui.stopUpdates
	ui.mu.Unlock()
	if stopCh == nil {
		return
	}

	poll := ui.config.Playback.PositionPoll()
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	go func() {
		animationTicker := time.NewTicker(ui.playingSpinner.FPS)
		positionTicker := time.NewTicker(poll)
		defer animationTicker.Stop()
		defer positionTicker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-animationTicker.C:
				ui.mu.Lock()
				ui.animationFrame++
				ui.mu.Unlock()

				ui.statusRenderer.AdvanceAnimation()

				ui.app.QueueUpdateDraw(func() {
					ui.updatePlayingIndicator()
				})
			case <-positionTicker.C:
				ui.controller.Tick()
				snap := ui.controller.Snapshot()
				ui.app.QueueUpdateDraw(func() {
					ui.updateProgress(snap)
				})
			}
		}
	}()
}

func (ui *UI) consumeEvents() {
	for ev := range ui.controller.Events() {
		ev := ev
		log.Debug().Msgf("Playback event: %s (%s)", ev.Type, ev.State)
		ui.app.QueueUpdateDraw(func() {
			ui.onPlaybackEvent(ev)
		})
	}
}

func (ui *UI) onPlaybackEvent(ev playback.Event) {
	snap := ui.controller.Snapshot()

	switch ev.Type {
	case playback.EventTrackStarted:
		ui.updateNowPlaying(snap)
		if ev.Track != nil {
			ui.selectTrackByID(ev.Track.ID)
		}
	case playback.EventQueueChanged:
		if ui.showingQueue {
			ui.showList(snap.Queue, "Queue", true)
		}
		ui.updateNowPlaying(snap)
	case playback.EventLoadFailed:
		if ev.Track != nil {
			ui.statusRenderer.SetNotice("Skipped " + ev.Track.DisplayName())
		}
	case playback.EventPlaybackStopped, playback.EventStateChanged, playback.EventTrackEnded:
		ui.updateNowPlaying(snap)
	}

	ui.refreshTrackTable()
}

func (ui *UI) onTracksRefreshed(tracks []track.Track) {
	ui.app.QueueUpdateDraw(func() {
		if ui.showingQueue {
			return
		}
		_, title := ui.catalog.Source()
		ui.showList(tracks, title, false)
	})
}

func (ui *UI) loadView(load func(ctx context.Context) ([]track.Track, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), catalogRequestTimeout)
		defer cancel()

		tracks, err := load(ctx)
		ui.app.QueueUpdateDraw(func() {
			if err != nil {
				ui.showError(err)
				return
			}
			_, title := ui.catalog.Source()
			ui.showList(tracks, title, false)
		})
	}()
}

func (ui *UI) globalInputHandler(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			ui.stop()
			return nil
		case ' ':
			ui.togglePlayPause()
			return nil
		case 'n', '>':
			ui.controller.PlayNext()
			return nil
		case 'p', '<':
			ui.controller.PlayPrevious()
			return nil
		case 's', 'S':
			ui.controller.ToggleShuffle()
			ui.SaveConfig()
			return nil
		case 'l':
			ui.controller.ToggleLoop()
			ui.SaveConfig()
			return nil
		case '+', '=':
			ui.adjustVolume(VolumeStep)
			return nil
		case '-', '_':
			ui.adjustVolume(-VolumeStep)
			return nil
		case 'm', 'M':
			ui.toggleMute()
			return nil
		case 'a':
			ui.addSelectedToQueue()
			return nil
		case 'x':
			ui.removeSelectedFromQueue()
			return nil
		case 'N':
			ui.playSelectedNext()
			return nil
		case 'c', 'C':
			ui.controller.Clear()
			return nil
		case 'v', 'V':
			ui.toggleQueueView()
			return nil
		case '/':
			ui.app.SetFocus(ui.searchInput)
			return nil
		case 'L':
			ui.loadView(ui.catalog.Liked)
			return nil
		case 'g':
			ui.loadView(ui.catalog.LoadLibrary)
			return nil
		case 'o':
			ui.openSelectedAlbum()
			return nil
		case '?':
			ui.showHelpModal()
			return nil
		case 'i', 'I':
			ui.showAboutModal()
			return nil
		}
	case tcell.KeyEnter:
		ui.playSelected()
		return nil
	case tcell.KeyEscape:
		ui.stop()
		return nil
	case tcell.KeyRight:
		ui.seekBy(SeekStep)
		return nil
	case tcell.KeyLeft:
		ui.seekBy(-SeekStep)
		return nil
	case tcell.KeyTab:
		ui.toggleQueueView()
		return nil
	}
	return event
}

func (ui *UI) togglePlayPause() {
	snap := ui.controller.Snapshot()
	if snap.Current != nil {
		ui.controller.TogglePlayPause()
		return
	}
	ui.playSelected()
}

func (ui *UI) seekBy(delta time.Duration) {
	snap := ui.controller.Snapshot()
	if snap.Current == nil {
		return
	}
	ui.controller.SeekTo(snap.Position + delta)
	ui.updateProgress(ui.controller.Snapshot())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
