package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/kodabkr/Multi-Clicker/internal/adapters/execclick"
	"github.com/kodabkr/Multi-Clicker/internal/core/accent"
	"github.com/kodabkr/Multi-Clicker/internal/core/capture"
	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
	"github.com/kodabkr/Multi-Clicker/internal/profile"
	"github.com/kodabkr/Multi-Clicker/internal/shell"
)

const (
	appID          = "io.github.kodabkr.multiclicker"
	stateInterval  = 150 * time.Millisecond
	maxUILogLines  = 50
	coordsNotSet   = "Not Set"
	captureMessage = "Getting pos in %ds..."
)

type pointerSampler interface {
	Position() (int, int, error)
	Close()
}

type slotRow struct {
	enabled *widget.Check
	name    *widget.Entry
	getPos  *widget.Button
	coords  *widget.Label
	clicks  *widget.Entry
}

func formatCoords(p *sequencer.Point) string {
	if p == nil {
		return coordsNotSet
	}
	return p.String()
}

// dependencyReport renders the startup dependency check the way the window
// shows it in place of a usable Start button.
func dependencyReport(err error) string {
	var missing *execclick.MissingDependencyError
	if !errors.As(err, &missing) {
		return "ERROR: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("ERROR: click dependency not found!\n")
	for _, dep := range missing.Dependencies {
		found := "No"
		if dep.Found {
			found = "Yes"
		}
		fmt.Fprintf(&b, "\n%s found: %s\nPath checked: %s\n", dep.Name, found, dep.Path)
	}
	fmt.Fprintf(&b, "\nSet %s (and %s when a script is needed) or place the files next to the program.", envClickExe, envClickScript)
	return b.String()
}

// describeRunError turns run errors into the short message shown in dialogs.
func describeRunError(err error) string {
	var verr *sequencer.ValidationError
	var clickErr *sequencer.ClickError
	switch {
	case errors.As(err, &verr) && verr.Field == "position":
		return fmt.Sprintf("Position for point #%d is not set.", verr.Slot+1)
	case errors.As(err, &verr) && verr.Slot >= 0:
		return fmt.Sprintf("Invalid %s for point #%d: %q %s.", verr.Field, verr.Slot+1, verr.Value, verr.Reason)
	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s %q: %s.", verr.Field, verr.Value, verr.Reason)
	case errors.Is(err, sequencer.ErrEmptySequence):
		return "No points were enabled in the sequence."
	case errors.As(err, &clickErr):
		return fmt.Sprintf("Click at %s failed, sequence stopped: %v", formatCoords(clickErr.Point.Coords), clickErr.Err)
	default:
		return err.Error()
	}
}

func runUI(cfg config) error {
	fApp := app.NewWithID(appID)

	window := fApp.NewWindow("Multi-Clicker")
	window.Resize(fyne.NewSize(640, 720))
	window.CenterOnScreen()

	logGrid := widget.NewTextGrid()
	logScroll := container.NewVScroll(logGrid)
	logScroll.SetMinSize(fyne.NewSize(0, 140))

	var logMu sync.Mutex
	logLines := make([]string, 0, maxUILogLines)
	debugLogs := debugLogsEnabled()
	appendLogLine := func(line string) {
		if !debugLogs {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		logMu.Lock()
		logLines = append(logLines, line)
		if len(logLines) > maxUILogLines {
			logLines = logLines[len(logLines)-maxUILogLines:]
		}
		logText := strings.Join(logLines, "\n")
		logMu.Unlock()

		fyne.Do(func() {
			logGrid.SetText(logText)
			logScroll.ScrollToBottom()
		})
	}
	logger := newSlogLogger(cfg.logLevel, appendLogLine)

	settingsPath := uiSettingsPath()
	settingsWarning := ""
	stored, err := loadUISettings(settingsPath)
	if err != nil {
		settingsWarning = fmt.Sprintf("Failed to load saved settings: %v", err)
		logger.Warn("UI settings ignored", "path", settingsPath, "err", err)
	}
	if stored == nil {
		stored = &uiSettings{}
	}

	palette, err := accent.New(stored.AccentColor)
	if err != nil {
		palette, _ = accent.New(accent.DefaultHex)
	}
	fApp.Settings().SetTheme(newMultiTheme(palette.Colors()))

	clickCfg := execclick.Config{Executable: cfg.clickExe, Script: cfg.clickScript}
	_, depErr := execclick.CheckDependencies(clickCfg)
	if depErr != nil {
		logger.Error("Click dependency check failed", "err", depErr)
	}
	runner, err := execclick.NewRunner(clickCfg, logger)
	if err != nil {
		return err
	}
	seq, err := sequencer.New(runner, logger)
	if err != nil {
		return err
	}
	store, err := profile.NewStore(cfg.profileDir)
	if err != nil {
		return fmt.Errorf("open profile directory: %w", err)
	}

	var sampler capture.Sampler
	pointer, samplerErr := newPointerSampler()
	if samplerErr != nil {
		pointer = nil
		logger.Warn("Pointer capture unavailable", "err", samplerErr)
		sampler = capture.SamplerFunc(func() (int, int, error) {
			return 0, 0, samplerErr
		})
	} else {
		sampler = pointer
	}
	scheduler, err := capture.NewScheduler(sampler, capture.DefaultStep)
	if err != nil {
		return err
	}

	ctrl, err := shell.New(shell.Deps{
		Runner:        seq,
		Store:         store,
		Capturer:      scheduler,
		Palette:       palette,
		Logger:        logger,
		DependencyErr: depErr,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errorText := canvas.NewText("", theme.Color(theme.ColorNameError))
	if settingsWarning != "" {
		errorText.Text = settingsWarning
	}
	showStatusError := func(msg string) {
		errorText.Text = msg
		errorText.Refresh()
		if msg != "" {
			appendLogLine("ERROR " + msg)
		}
	}

	persistUISettings := func(lastProfile string) {
		settings := uiSettings{LastProfile: lastProfile, AccentColor: palette.Hex()}
		if err := saveUISettings(settingsPath, settings); err != nil {
			showStatusError(fmt.Sprintf("Failed to save settings: %v", err))
		}
	}

	// Slot rows.
	rows := make([]slotRow, sequencer.NumSlots)
	rowObjects := make([]fyne.CanvasObject, 0, sequencer.NumSlots+1)
	header := container.NewBorder(nil, nil,
		container.NewHBox(widget.NewLabelWithStyle("#", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("On", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})),
		container.NewHBox(widget.NewLabelWithStyle("Set Position", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Coordinates", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Clicks", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})),
		widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)
	rowObjects = append(rowObjects, header)

	for i := range rows {
		row := slotRow{
			enabled: widget.NewCheck("", func(on bool) { _ = ctrl.SetEnabled(i, on) }),
			name:    widget.NewEntry(),
			coords:  widget.NewLabel(coordsNotSet),
			clicks:  widget.NewEntry(),
		}
		row.name.SetPlaceHolder(fmt.Sprintf("Action #%d", i+1))
		row.name.OnChanged = func(text string) { _ = ctrl.SetName(i, text) }
		row.clicks.OnChanged = func(text string) { _ = ctrl.SetClicksText(i, text) }
		row.getPos = widget.NewButton("Get Pos", func() {
			label := rows[i].coords
			err := ctrl.CaptureSlot(i,
				func(remaining int) {
					fyne.Do(func() { label.SetText(fmt.Sprintf(captureMessage, remaining)) })
				},
				func(slot shell.Slot, err error) {
					fyne.Do(func() {
						if err != nil {
							current, _ := ctrl.Slot(i)
							label.SetText(formatCoords(current.Coords))
							showStatusError(fmt.Sprintf("Position capture failed: %v", err))
							return
						}
						label.SetText(formatCoords(slot.Coords))
					})
				})
			if err != nil {
				showStatusError(err.Error())
			}
		})

		clicksBox := container.NewGridWrap(fyne.NewSize(56, row.clicks.MinSize().Height), row.clicks)
		coordsBox := container.NewGridWrap(fyne.NewSize(120, row.coords.MinSize().Height), row.coords)
		rowObjects = append(rowObjects, container.NewBorder(nil, nil,
			container.NewHBox(widget.NewLabel(fmt.Sprintf("#%d", i+1)), row.enabled),
			container.NewHBox(row.getPos, coordsBox, clicksBox),
			row.name,
		))
		rows[i] = row
	}

	delayEntry := widget.NewEntry()
	delayEntry.SetPlaceHolder("e.g., 0.1")
	delayEntry.OnChanged = ctrl.SetDelayText
	loopCheck := widget.NewCheck("Loop", ctrl.SetLoop)

	refreshInputs := func() {
		for i, slot := range ctrl.Slots() {
			rows[i].enabled.SetChecked(slot.Enabled)
			rows[i].name.SetText(slot.Name)
			rows[i].clicks.SetText(slot.ClicksText)
			rows[i].coords.SetText(formatCoords(slot.Coords))
		}
		delayEntry.SetText(ctrl.DelayText())
		loopCheck.SetChecked(ctrl.Loop())
	}
	refreshInputs()

	// Run controls.
	startLabel := fmt.Sprintf("Start (%s)", cfg.startKey)
	stopLabel := fmt.Sprintf("Stop (%s)", cfg.stopKey)
	startBtn := widget.NewButton(startLabel, nil)
	startBtn.Importance = widget.HighImportance
	stopBtn := widget.NewButton(stopLabel, nil)
	stopBtn.Importance = widget.DangerImportance
	progressLabel := widget.NewLabel("")

	updateRunControls := func() {
		if ctrl.Running() {
			laps, clicks := ctrl.Progress()
			progressLabel.SetText(fmt.Sprintf("Running: lap %d, %d clicks", laps+1, clicks))
		} else {
			progressLabel.SetText("")
		}
		if ctrl.CanStart() {
			startBtn.Enable()
		} else {
			startBtn.Disable()
		}
		if ctrl.CanStop() {
			stopBtn.Enable()
		} else {
			stopBtn.Disable()
		}
	}

	reportRunError := func(err error) {
		msg := describeRunError(err)
		showStatusError(msg)
		dialog.ShowError(errors.New(msg), window)
	}

	startBtn.OnTapped = func() {
		if !ctrl.CanStart() {
			return
		}
		if err := ctrl.Start(ctx); err != nil {
			reportRunError(err)
		} else {
			showStatusError("")
		}
		updateRunControls()
	}
	stopBtn.OnTapped = func() {
		ctrl.Stop()
		updateRunControls()
	}
	updateRunControls()

	// Hotkeys.
	var listener hotkey.Listener
	if hotkeysSupported {
		bindings, err := parseHotkeyBindings(cfg.startKey, cfg.stopKey)
		if err == nil {
			var router *hotkey.Router
			router, err = hotkey.NewRouter(bindings, func(action hotkey.Action) {
				fyne.Do(func() {
					applied, err := ctrl.HandleHotkey(ctx, action)
					if err != nil {
						reportRunError(err)
					}
					if applied {
						logger.Debug("Hotkey applied", "action", action)
					}
					updateRunControls()
				})
			})
			if err == nil {
				listener, err = startHotkeyListener(cfg.hotkeyBackend, router, logger)
			}
		}
		switch {
		case err == nil:
			logger.Info("Hotkeys", "start", formatCodeName(bindings.Start), "stop", formatCodeName(bindings.Stop))
		case isPermissionError(err):
			logger.Warn("Global hotkeys unavailable", "err", err)
			showStatusError(permissionDeniedHint())
		default:
			logger.Warn("Global hotkeys unavailable", "err", err)
			showStatusError(fmt.Sprintf("Global hotkeys unavailable: %v", err))
		}
	} else {
		logger.Info("Global hotkeys are not supported on this platform")
	}

	// Accent colour.
	titleText := canvas.NewText("Multi-Clicker", palette.Colors().Accent)
	titleText.TextStyle = fyne.TextStyle{Bold: true}
	titleText.TextSize = 24
	accentLine := canvas.NewRectangle(palette.Colors().Accent)
	accentLine.SetMinSize(fyne.NewSize(200, 3))

	unsubscribe := palette.Subscribe(func(colors accent.Colors) {
		fyne.Do(func() {
			fApp.Settings().SetTheme(newMultiTheme(colors))
			titleText.Color = colors.Accent
			titleText.Refresh()
			accentLine.FillColor = colors.Accent
			accentLine.Refresh()
		})
	})
	defer unsubscribe()

	// Profiles.
	profileSelect := widget.NewSelectEntry(nil)
	profileSelect.SetPlaceHolder("Profile name")
	refreshProfiles := func(selected string) {
		names, err := ctrl.Profiles()
		if err != nil {
			showStatusError(fmt.Sprintf("Failed to list profiles: %v", err))
			return
		}
		profileSelect.SetOptions(names)
		switch {
		case selected != "":
			profileSelect.SetText(selected)
		case len(names) > 0:
			profileSelect.SetText(names[0])
		default:
			profileSelect.SetText("")
		}
	}
	refreshProfiles(stored.LastProfile)

	colorBtn := widget.NewButton("Change Color", func() {
		picker := dialog.NewColorPicker("Accent Color", "Choose an accent colour", func(c color.Color) {
			hex, ok := accent.HexOf(c)
			if !ok {
				return
			}
			if err := ctrl.SetAccent(hex); err != nil {
				showStatusError(err.Error())
				return
			}
			persistUISettings(strings.TrimSpace(profileSelect.Text))
		}, window)
		picker.Advanced = true
		picker.SetColor(palette.Colors().Accent)
		picker.Show()
	})

	loadBtn := widget.NewButton("Load", func() {
		name := strings.TrimSpace(profileSelect.Text)
		if name == "" {
			dialog.ShowInformation("Load Warning", "No configuration selected.", window)
			return
		}
		if err := ctrl.LoadProfile(name); err != nil {
			dialog.ShowError(fmt.Errorf("failed to load configuration: %w", err), window)
			return
		}
		refreshInputs()
		showStatusError("")
		persistUISettings(name)
	})

	saveBtn := widget.NewButton("Save", func() {
		nameEntry := widget.NewEntry()
		nameEntry.SetText(strings.TrimSpace(profileSelect.Text))
		dialog.ShowForm("Save Configuration", "Save", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Name", nameEntry)},
			func(ok bool) {
				name := strings.TrimSpace(nameEntry.Text)
				if !ok || name == "" {
					return
				}
				if err := ctrl.SaveProfile(name); err != nil {
					dialog.ShowError(fmt.Errorf("failed to save configuration: %w", err), window)
					return
				}
				refreshProfiles(name)
				persistUISettings(name)
			}, window)
	})

	deleteBtn := widget.NewButton("Delete", func() {
		name := strings.TrimSpace(profileSelect.Text)
		if name == "" {
			dialog.ShowInformation("Delete Warning", "No configuration selected.", window)
			return
		}
		dialog.ShowConfirm("Confirm Deletion", fmt.Sprintf("Are you sure you want to delete '%s'?", name), func(ok bool) {
			if !ok {
				return
			}
			if err := ctrl.DeleteProfile(name); err != nil {
				dialog.ShowError(fmt.Errorf("failed to delete configuration: %w", err), window)
				return
			}
			refreshProfiles("")
			persistUISettings("")
		}, window)
	})
	deleteBtn.Importance = widget.DangerImportance

	// State ticker: detects runs that ended on their own.
	stopTicker := make(chan struct{})
	go func() {
		ticker := time.NewTicker(stateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopTicker:
				return
			case <-ticker.C:
				fyne.Do(func() {
					finished, err := ctrl.Poll()
					if finished && err != nil {
						reportRunError(err)
					}
					updateRunControls()
				})
			}
		}
	}()

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			close(stopTicker)
			if listener != nil {
				listener.Stop()
			}
			ctrl.Close()
			if pointer != nil {
				pointer.Close()
			}
			cancel()
		})
	}

	quit := func() {
		persistUISettings(strings.TrimSpace(profileSelect.Text))
		cleanup()
		if currentApp := fyne.CurrentApp(); currentApp != nil {
			currentApp.Quit()
			return
		}
		window.SetCloseIntercept(nil)
		window.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			fyne.Do(quit)
		}
	}()
	window.SetCloseIntercept(quit)

	// Layout.
	runSettings := container.NewHBox(
		widget.NewLabel("Delay Between Click(s):"),
		container.NewGridWrap(fyne.NewSize(100, delayEntry.MinSize().Height), delayEntry),
		loopCheck,
	)
	sequenceScroll := container.NewVScroll(container.NewVBox(rowObjects...))
	sequenceScroll.SetMinSize(fyne.NewSize(0, 320))
	sequenceCard := widget.NewCard("Click Sequence", "", sequenceScroll)

	accentRow := container.NewHBox(widget.NewLabel("Accent Color:"), colorBtn)
	profileCard := widget.NewCard("Configuration Profile", "", container.NewVBox(
		profileSelect,
		container.NewGridWithColumns(3, loadBtn, saveBtn, deleteBtn),
	))
	runRow := container.NewVBox(container.NewGridWithColumns(2, startBtn, stopBtn), progressLabel)

	top := container.NewVBox(titleText, accentLine)
	if depErr != nil {
		depLabel := widget.NewLabel(dependencyReport(depErr))
		depLabel.Importance = widget.DangerImportance
		depLabel.Wrapping = fyne.TextWrapWord
		top.Add(depLabel)
	}
	top.Add(runSettings)

	bottom := container.NewVBox(accentRow, profileCard, errorText, runRow)
	mainPanel := container.NewPadded(container.NewBorder(top, bottom, nil, nil, sequenceCard))

	var rootContent fyne.CanvasObject = mainPanel
	if debugLogs {
		logsCard := widget.NewCard("Logs", "", logScroll)
		split := container.NewVSplit(mainPanel, logsCard)
		split.SetOffset(0.78)
		rootContent = split
	}

	window.SetContent(rootContent)
	window.ShowAndRun()
	cleanup()
	return nil
}
