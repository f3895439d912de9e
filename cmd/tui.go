// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gleba/auxac/pkg/aircon"
	"github.com/gleba/auxac/pkg/auxproto"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// engineTickInterval paces the conditioner engine from the TUI event
// loop. The serial read inside a tick is bounded by readTimeout, so
// the UI stays responsive.
const engineTickInterval = 20 * time.Millisecond

const maxEventEntries = 100

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type eventEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// tuiModel is the Bubble Tea model for the control dashboard.
type tuiModel struct {
	cond     *aircon.Conditioner
	connInfo string

	// Last rendered device state, for change detection
	state   auxproto.State
	ambient auxproto.Ambient

	events   []eventEntry
	spin     spinner.Model
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type engineTickMsg time.Time

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive control dashboard",
	Long: `Full-screen dashboard showing the live conditioner state with
single-key controls.

Keys:
  p        Toggle power
  m        Cycle operating mode
  +/-      Target temperature up/down by half a degree
  f        Cycle fan speed
  v/h      Toggle vertical/horizontal louver swing
  d        Toggle the LED display
  s        Toggle sleep mode
  q        Quit`,
	RunE: runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTui(cmd *cobra.Command, args []string) error {
	bus, connInfo, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	cond := aircon.New(bus,
		aircon.WithLogger(logger),
		aircon.WithPollInterval(pollInterval()),
	)

	model := initialTuiModel(cond, connInfo)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func initialTuiModel(cond *aircon.Conditioner, connInfo string) tuiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return tuiModel{
		cond:     cond,
		connInfo: connInfo,
		state:    auxproto.NewUntouchedState(),
		events:   make([]eventEntry, 0),
		spin:     sp,
		width:    80,
		height:   24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(engineTickCmd(), m.spin.Tick)
}

func engineTickCmd() tea.Cmd {
	return tea.Tick(engineTickInterval, func(t time.Time) tea.Msg {
		return engineTickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case engineTickMsg:
		m.cond.Tick()
		m.noteChanges()
		return m, engineTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m tuiModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "p":
		power := auxproto.PowerOn
		if m.state.Power == auxproto.PowerOn {
			power = auxproto.PowerOff
		}
		m.sendPower(power)

	case "m":
		m.sendChange("mode", func(s *auxproto.State) {
			s.Mode = nextMode(m.state.Mode)
		})

	case "+", "=", "up":
		m.sendTempDelta(0.5)

	case "-", "down":
		m.sendTempDelta(-0.5)

	case "f":
		m.sendChange("fan", func(s *auxproto.State) {
			s.FanSpeed = nextFanSpeed(m.state.FanSpeed)
		})

	case "v":
		m.sendChange("louver-v", func(s *auxproto.State) {
			if m.state.LouverV == auxproto.LouverVSwing {
				s.LouverV = auxproto.LouverVOff
			} else {
				s.LouverV = auxproto.LouverVSwing
			}
		})

	case "h":
		m.sendChange("louver-h", func(s *auxproto.State) {
			if m.state.LouverH == auxproto.LouverHSwing {
				s.LouverH = auxproto.LouverHOff
			} else {
				s.LouverH = auxproto.LouverHSwing
			}
		})

	case "d":
		m.sendChange("display", func(s *auxproto.State) {
			if m.state.Display == auxproto.DisplayOff {
				s.Display = auxproto.DisplayOn
			} else {
				s.Display = auxproto.DisplayOff
			}
		})

	case "s":
		m.sendChange("sleep", func(s *auxproto.State) {
			if m.state.Sleep == auxproto.SleepOn {
				s.Sleep = auxproto.SleepOff
			} else {
				s.Sleep = auxproto.SleepOn
			}
		})
	}

	return m, nil
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m *tuiModel) sendPower(power auxproto.Power) {
	if !m.cond.Connected() {
		m.addEvent("Not connected yet", true)
		return
	}
	if err := m.cond.PowerSequence(power); err != nil {
		m.addEvent(fmt.Sprintf("Power command refused: %v", err), true)
		return
	}
	m.addEvent(fmt.Sprintf("Power %s requested", power), false)
}

func (m *tuiModel) sendChange(name string, apply func(*auxproto.State)) {
	if !m.cond.Connected() {
		m.addEvent("Not connected yet", true)
		return
	}
	cmd := auxproto.NewUntouchedState()
	apply(&cmd)
	if err := m.cond.CommandSequence(cmd); err != nil {
		m.addEvent(fmt.Sprintf("Command refused (%s): %v", name, err), true)
		return
	}
	m.addEvent(fmt.Sprintf("Change requested: %s", name), false)
}

func (m *tuiModel) sendTempDelta(delta float32) {
	if m.state.TargetTemp < 0 {
		m.addEvent("No target temperature known yet", true)
		return
	}
	target := m.state.TargetTemp + delta
	if target < auxproto.MinTargetTemp {
		target = auxproto.MinTargetTemp
	}
	if target > auxproto.MaxTargetTemp {
		target = auxproto.MaxTargetTemp
	}
	m.sendChange(fmt.Sprintf("target %.1f°C", target), func(s *auxproto.State) {
		s.TargetTemp = target
	})
}

func nextMode(mode auxproto.Mode) auxproto.Mode {
	switch mode {
	case auxproto.ModeAuto:
		return auxproto.ModeCool
	case auxproto.ModeCool:
		return auxproto.ModeDry
	case auxproto.ModeDry:
		return auxproto.ModeHeat
	case auxproto.ModeHeat:
		return auxproto.ModeFan
	default:
		return auxproto.ModeAuto
	}
}

func nextFanSpeed(speed auxproto.FanSpeed) auxproto.FanSpeed {
	switch speed {
	case auxproto.FanSpeedAuto:
		return auxproto.FanSpeedLow
	case auxproto.FanSpeedLow:
		return auxproto.FanSpeedMedium
	case auxproto.FanSpeedMedium:
		return auxproto.FanSpeedHigh
	default:
		return auxproto.FanSpeedAuto
	}
}

//////////////////////////////////////////////////////////////
// Change tracking
//////////////////////////////////////////////////////////////

func (m *tuiModel) noteChanges() {
	state := m.cond.State()
	ambient := m.cond.Ambient()
	if state != m.state {
		m.state = state
		m.addEvent("Settings updated", false)
	}
	if ambient != m.ambient {
		m.ambient = ambient
	}
}

func (m *tuiModel) addEvent(message string, isError bool) {
	m.events = append(m.events, eventEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.events) > maxEventEntries {
		m.events = m.events[len(m.events)-maxEventEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("AUXCTL"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit p=power m=mode +/-=temp f=fan v/h=louvers d=display s=sleep", m.connInfo)))
	s.WriteString("\n\n")

	if !m.cond.Connected() {
		s.WriteString(fmt.Sprintf("%s %s\n", m.spin.View(),
			warningStyle.Render("Waiting for the conditioner to ping...")))
		s.WriteString(headerStyle.Render("The device initiates contact every few seconds.\n"))
		return s.String()
	}

	// Settings panel
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.renderSettings(labelStyle, valueStyle)))
	s.WriteString("\n\n")

	// Sensors and exchange status
	busy := ""
	if m.cond.HasSequence() {
		busy = fmt.Sprintf("  %s exchanging...", m.spin.View())
	}
	sensors := fmt.Sprintf("%s %s  %s %s%s",
		labelStyle.Render("Ambient:"), valueStyle.Render(fmt.Sprintf("%.1f°C", m.ambient.AmbientTemp)),
		labelStyle.Render("Outdoor:"), valueStyle.Render(fmt.Sprintf("%.1f°C", m.ambient.OutdoorTemp)),
		busy)
	s.WriteString(boxStyle.Width(m.width - 4).Render(sensors))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEvents(labelStyle, headerStyle, warningStyle, errorStyle, boxStyle))

	return s.String()
}

func (m tuiModel) renderSettings(labelStyle, valueStyle lipgloss.Style) string {
	target := "-"
	if m.state.TargetTemp >= 0 {
		target = fmt.Sprintf("%.1f°C", m.state.TargetTemp)
	}

	row := func(pairs ...string) string {
		var b strings.Builder
		for i := 0; i+1 < len(pairs); i += 2 {
			b.WriteString(fmt.Sprintf("%-22s", fmt.Sprintf("%s %s",
				labelStyle.Render(pairs[i]), valueStyle.Render(pairs[i+1]))))
		}
		return b.String()
	}

	lines := []string{
		row("Power:", m.state.Power.String(), "Mode:", m.state.Mode.String(), "Target:", target),
		row("Fan:", m.state.FanSpeed.String(), "Turbo:", m.state.FanTurbo.String(), "Mute:", m.state.FanMute.String()),
		row("LouverV:", m.state.LouverV.String(), "LouverH:", m.state.LouverH.String(), "Display:", m.state.Display.String()),
		row("Sleep:", m.state.Sleep.String(), "IFeel:", m.state.IFeel.String(), "Health:", m.state.Health.String()),
		row("Clean:", m.state.Clean.String(), "Mildew:", m.state.Mildew.String()),
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) renderEvents(labelStyle, headerStyle, warningStyle, errorStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 8
	startIdx := len(m.events) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.events) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.events); i++ {
			entry := m.events[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}
