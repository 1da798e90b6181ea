package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ajbucci/rustfmsynth-sub000/audio"
	"github.com/ajbucci/rustfmsynth-sub000/codec"
	"github.com/ajbucci/rustfmsynth-sub000/config"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
	"github.com/ajbucci/rustfmsynth-sub000/patchstore"
	"github.com/ajbucci/rustfmsynth-sub000/protocol"
	"github.com/ajbucci/rustfmsynth-sub000/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	activeKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// keyRow maps the home row to one octave of semitones, white keys on
// the letters and sharps on the row above, ending on the next C.
var keyRow = []struct {
	key      string
	semitone int
}{
	{"a", 0}, {"w", 1}, {"s", 2}, {"e", 3}, {"d", 4},
	{"f", 5}, {"t", 6}, {"g", 7}, {"y", 8}, {"h", 9},
	{"u", 10}, {"j", 11}, {"k", 12},
}

// noteHold is how long a keypress sounds; terminals report no key-up.
const noteHold = 350 * time.Millisecond

type interactiveModel struct {
	bridge *session.Bridge
	cfg    config.Config
	patch  *patch.Patch

	state   modelState
	err     error
	cancel  context.CancelFunc
	octave  int
	gain    float64
	held    map[uint8]int
	status  string
	nameIn  textinput.Model
	playErr chan error
}

type modelState int

const (
	stateLoading modelState = iota
	statePlaying
	stateSaving
	stateFailed
)

type readyMsg struct{ err error }

type noteOffMsg struct{ note uint8 }

type savedMsg struct{ err error }

func newInteractiveModel(bridge *session.Bridge, cfg config.Config, p *patch.Patch) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "patch name: "
	ti.Width = 32

	return &interactiveModel{
		bridge:  bridge,
		cfg:     cfg,
		patch:   p,
		state:   stateLoading,
		octave:  4,
		gain:    p.MasterVolume,
		held:    map[uint8]int{},
		nameIn:  ti,
		playErr: make(chan error, 1),
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.boot
}

// boot brings the session up and starts draining blocks into the
// default output device.
func (m *interactiveModel) boot() tea.Msg {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	if err := m.bridge.EnsureReady(ctx); err != nil {
		cancel()
		return readyMsg{err: err}
	}

	go func() {
		m.playErr <- audio.Play(ctx, m.bridge.Handle().Blocks(), m.cfg.SampleRate, m.cfg.BlockSize)
	}()
	return readyMsg{}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateSaving {
			return m.updateSaving(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case "z":
			if m.state == statePlaying && m.octave > 1 {
				m.octave--
				m.status = fmt.Sprintf("octave %d", m.octave)
			}

		case "x":
			if m.state == statePlaying && m.octave < 7 {
				m.octave++
				m.status = fmt.Sprintf("octave %d", m.octave)
			}

		case "-":
			if m.state == statePlaying {
				m.setGain(m.gain - 0.05)
			}

		case "+", "=":
			if m.state == statePlaying {
				m.setGain(m.gain + 0.05)
			}

		case "ctrl+s":
			if m.state == statePlaying {
				m.state = stateSaving
				m.nameIn.SetValue("")
				m.nameIn.Focus()
			}

		default:
			if m.state == statePlaying {
				return m.pressKey(msg.String())
			}
		}

	case readyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateFailed
			return m, nil
		}
		m.state = statePlaying

	case noteOffMsg:
		m.held[msg.note]--
		if m.held[msg.note] <= 0 {
			delete(m.held, msg.note)
			m.bridge.Send(protocol.NoteOff{Note: msg.note})
		}

	case savedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("save failed: %v", msg.err))
		} else {
			m.status = "saved"
		}
		m.state = statePlaying
	}

	return m, nil
}

func (m *interactiveModel) pressKey(key string) (tea.Model, tea.Cmd) {
	for _, k := range keyRow {
		if k.key != key {
			continue
		}
		note := midiNote(m.octave, k.semitone)
		m.held[note]++
		m.bridge.Send(protocol.NoteOn{Note: note, Velocity: 100})
		return m, tea.Tick(noteHold, func(time.Time) tea.Msg {
			return noteOffMsg{note: note}
		})
	}
	return m, nil
}

func (m *interactiveModel) updateSaving(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = statePlaying
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameIn.Value())
		if name == "" {
			m.state = statePlaying
			return m, nil
		}
		return m, m.saveCmd(name)
	}

	var cmd tea.Cmd
	m.nameIn, cmd = m.nameIn.Update(msg)
	return m, cmd
}

func (m *interactiveModel) saveCmd(name string) tea.Cmd {
	p := m.patch.Clone()
	p.MasterVolume = m.gain

	return func() tea.Msg {
		state, err := codec.EncodePatch(p)
		if err != nil {
			return savedMsg{err: err}
		}
		store, err := patchstore.Open(m.cfg.StorePath)
		if err != nil {
			return savedMsg{err: err}
		}
		defer store.Close()
		return savedMsg{err: store.Save(patchstore.Record{Name: name, State: state})}
	}
}

func (m *interactiveModel) setGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	m.gain = gain
	m.bridge.Send(protocol.SetMasterVolume{Gain: gain})
	m.status = fmt.Sprintf("volume %.2f", gain)
}

func midiNote(octave, semitone int) uint8 {
	return uint8((octave+1)*12 + semitone)
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("fmsynth"))
	b.WriteString(" ")
	b.WriteString(m.cfg.ModulePath)
	b.WriteString("\n\n")

	switch m.state {
	case stateLoading:
		b.WriteString("Starting session...")

	case stateFailed:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))

	case stateSaving:
		b.WriteString(m.nameIn.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter save • esc cancel"))

	case statePlaying:
		b.WriteString(m.renderKeyboard())
		b.WriteString("\n\n")
		b.WriteString(statusStyle.Render(fmt.Sprintf("octave %d • volume %.2f", m.octave, m.gain)))
		if m.status != "" {
			b.WriteString("  ")
			b.WriteString(helpStyle.Render(m.status))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("a-k play • z/x octave • -/+ volume • ctrl+s save • q quit"))
	}

	b.WriteString("\n")
	return b.String()
}

func (m *interactiveModel) renderKeyboard() string {
	var cells []string
	for _, k := range keyRow {
		label := fmt.Sprintf(" %s ", k.key)
		if m.held[midiNote(m.octave, k.semitone)] > 0 {
			cells = append(cells, activeKeyStyle.Render(label))
		} else {
			cells = append(cells, keyStyle.Render(label))
		}
	}
	return strings.Join(cells, "")
}

func runInteractive(bridge *session.Bridge, cfg config.Config, p *patch.Patch) error {
	prog := tea.NewProgram(newInteractiveModel(bridge, cfg, p), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
