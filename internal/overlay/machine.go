package overlay

import (
	"errors"
	"fmt"

	"dalnoboi/internal/domain/order"
)

// Primary is the panel occupying the foreground. The tooltip is tracked separately.
type Primary string

const (
	PrimaryNone   Primary = "none"
	PrimaryDetail Primary = "detail"
	PrimaryNearby Primary = "nearby"
	PrimaryAction Primary = "action"
)

func (p Primary) String() string { return string(p) }

var ErrInvalidTransition = errors.New("invalid overlay transition")

// Pixel is a screen position relative to the map container.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tooltip is the short card shown next to a clicked marker.
type Tooltip struct {
	CargoID int64 `json:"cargo_id"`
	At      Pixel `json:"at"`
}

// View is a snapshot of every overlay, sent to the client after each transition.
type View struct {
	Foreground    string         `json:"foreground"`
	Primary       Primary        `json:"primary"`
	Tooltip       *Tooltip       `json:"tooltip,omitempty"`
	SelectedCargo int64          `json:"selected_cargo,omitempty"`
	Order         *order.Preview `json:"order,omitempty"`
	FilterPanel   bool           `json:"filter_panel"`
	SettingsPanel bool           `json:"settings_panel"`
}

// Machine is the tooltip and panel state of one map session.
// It is not safe for concurrent use.
type Machine struct {
	primary  Primary
	tooltip  *Tooltip
	selected int64
	order    *order.Preview

	filterPanel   bool
	settingsPanel bool
}

func New() *Machine {
	return &Machine{primary: PrimaryNone}
}

func (m *Machine) Primary() Primary { return m.primary }

func (m *Machine) Selected() int64 { return m.selected }

// Hovered is the cargo whose tooltip is open, or 0.
func (m *Machine) Hovered() int64 {
	if m.tooltip == nil {
		return 0
	}
	return m.tooltip.CargoID
}

// Foreground names the overlay the user currently sees on top.
func (m *Machine) Foreground() string {
	if m.primary != PrimaryNone {
		return m.primary.String()
	}
	if m.tooltip != nil {
		return "tooltip"
	}
	return "idle"
}

// View returns a copy of the current state.
func (m *Machine) View() View {
	v := View{
		Foreground:    m.Foreground(),
		Primary:       m.primary,
		SelectedCargo: m.selected,
		Order:         m.order,
		FilterPanel:   m.filterPanel,
		SettingsPanel: m.settingsPanel,
	}
	if m.tooltip != nil {
		t := *m.tooltip
		v.Tooltip = &t
	}
	return v
}

// ClickMarker handles a click on a single-offer marker. Clicking the cargo whose tooltip is
// already open shows its details; any other marker opens a tooltip, replacing an open
// detail or nearby panel. Markers are inert while the action panel is up.
func (m *Machine) ClickMarker(cargoID int64, at Pixel) error {
	if cargoID <= 0 {
		return fmt.Errorf("%w: cargo id %d", ErrInvalidTransition, cargoID)
	}
	if m.primary == PrimaryAction {
		return fmt.Errorf("%w: action panel is open", ErrInvalidTransition)
	}
	if m.Hovered() == cargoID {
		return m.ShowDetails(cargoID)
	}

	m.primary = PrimaryNone
	m.tooltip = &Tooltip{CargoID: cargoID, At: at}
	m.selected = cargoID
	return nil
}

// ShowDetails opens the detail panel from the tooltip of the same cargo, or for any
// cargo picked from the nearby list.
func (m *Machine) ShowDetails(cargoID int64) error {
	switch {
	case m.tooltip != nil && m.tooltip.CargoID == cargoID:
	case m.primary == PrimaryNearby && cargoID > 0:
	default:
		return fmt.Errorf("%w: details for %d from %s", ErrInvalidTransition, cargoID, m.Foreground())
	}

	m.tooltip = nil
	m.primary = PrimaryDetail
	m.selected = cargoID
	return nil
}

// ShowNearby opens the nearby-cargo panel for the selected cargo.
func (m *Machine) ShowNearby() error {
	if m.tooltip == nil && m.primary != PrimaryDetail {
		return fmt.Errorf("%w: nearby from %s", ErrInvalidTransition, m.Foreground())
	}

	m.tooltip = nil
	m.primary = PrimaryNearby
	return nil
}

// BookingSucceeded moves the detail panel of the booked cargo to the action panel.
func (m *Machine) BookingSucceeded(p order.Preview) error {
	if m.primary != PrimaryDetail {
		return fmt.Errorf("%w: booking from %s", ErrInvalidTransition, m.Foreground())
	}
	if p.CargoID != m.selected {
		return fmt.Errorf("%w: booked %d but %d is selected", ErrInvalidTransition, p.CargoID, m.selected)
	}

	m.primary = PrimaryAction
	m.order = &p
	return nil
}

// UpdateOrder refreshes the preview shown on the action panel.
func (m *Machine) UpdateOrder(p order.Preview) error {
	if m.primary != PrimaryAction || m.order == nil || m.order.OrderID != p.OrderID {
		return fmt.Errorf("%w: no action panel for order %s", ErrInvalidTransition, p.OrderID)
	}
	m.order = &p
	return nil
}

// Close dismisses the foreground overlay. Closing the action panel resets everything.
func (m *Machine) Close() error {
	switch m.primary {
	case PrimaryAction:
		m.reset()
	case PrimaryDetail, PrimaryNearby:
		m.primary = PrimaryNone
		m.selected = 0
	default:
		if m.tooltip == nil {
			return fmt.Errorf("%w: nothing to close", ErrInvalidTransition)
		}
		m.tooltip = nil
		m.selected = 0
	}
	return nil
}

// OutsideClick closes the tooltip only. Panels stay open.
func (m *Machine) OutsideClick() {
	if m.tooltip == nil {
		return
	}
	m.tooltip = nil
	if m.primary == PrimaryNone {
		m.selected = 0
	}
}

func (m *Machine) ToggleFilterPanel() bool {
	m.filterPanel = !m.filterPanel
	return m.filterPanel
}

func (m *Machine) ToggleSettingsPanel() bool {
	m.settingsPanel = !m.settingsPanel
	return m.settingsPanel
}

func (m *Machine) reset() {
	m.primary = PrimaryNone
	m.tooltip = nil
	m.selected = 0
	m.order = nil
}
