package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"netwatch/internal/domain"
	"netwatch/internal/service"
	"netwatch/internal/simulate"
)

const rule = "--------------------------------------"

// Renderer writes human readable output for core operations
type Renderer struct {
	w  io.Writer
	st Styles
}

// NewRenderer creates a renderer on w
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, st: NewStyles(w)}
}

// Writer returns the underlying writer
func (r *Renderer) Writer() io.Writer {
	return r.w
}

func (r *Renderer) line(s string) {
	fmt.Fprintln(r.w, s)
}

// ConnectResult reports the outcome of a manual connection request
func (r *Renderer) ConnectResult(res service.ConnectResult, err error) {
	if errors.Is(err, domain.ErrInvalidAddress) {
		r.Error(err)
		return
	}

	switch res.Outcome {
	case domain.OutcomeCreated:
		r.line(r.st.OK.Render(fmt.Sprintf("Connection added successfully: %s <-> %s", res.A, res.B)))
	case domain.OutcomeAlreadyExists:
		r.line(r.st.Warning.Render(fmt.Sprintf("Warning: Connection already exists between %s and %s.", res.A, res.B)))
	case domain.OutcomeSelfLoopRejected:
		r.line(r.st.Alert.Render("Error: Cannot connect a device to itself."))
	case domain.OutcomeCapacityExceeded:
		r.line(r.st.Alert.Render("Error: Maximum number of devices reached."))
	}

	if err != nil {
		r.Error(err)
	}
}

// Flagged announces a device that just crossed the threshold
func (r *Renderer) Flagged(address string, degree int) {
	r.line(r.st.Alert.Render(fmt.Sprintf(
		"[!] WARNING: Device %s now has %d connections and has been FLAGGED as suspicious!", address, degree)))
}

// Loaded reports a store replay
func (r *Renderer) Loaded(n int, location string) {
	if n == 0 {
		r.line(r.st.Warning.Render(fmt.Sprintf("No connections found in %s.", location)))
		return
	}
	r.line(r.st.OK.Render(fmt.Sprintf("Loaded %d connections from %s", n, location)))
}

// NetworkMap prints every device with its degree, status and neighbors
func (r *Renderer) NetworkMap(m domain.NetworkMap) {
	r.line("")
	r.line(r.st.Heading.Render("====== NETWORK THREAT MAP ======"))
	r.line(fmt.Sprintf("Total Devices: %d", len(m.Devices)))
	r.line(fmt.Sprintf("Connections: %d (threshold %d)", len(m.Edges), m.Threshold))
	r.line(r.st.Rule.Render(rule))

	for _, d := range m.Devices {
		var head string
		switch d.Status {
		case domain.DeviceStatusFlagged:
			head = r.st.Alert.Render(fmt.Sprintf("[FLAGGED] %s (%d connections):", d.Address, d.Degree))
		case domain.DeviceStatusSuspicious:
			head = r.st.Alert.Render(fmt.Sprintf("[SUSPICIOUS] %s (%d connections):", d.Address, d.Degree))
		default:
			head = r.st.OK.Render(fmt.Sprintf("%s (%d):", d.Address, d.Degree))
		}
		r.line(head + " " + r.st.Warning.Render(strings.Join(d.Neighbors, " ")))
	}

	r.line(r.st.Rule.Render(rule))
}

// StoreDump prints the raw connection log under a heading
func (r *Renderer) StoreDump(location string, dump func(w io.Writer) error) {
	r.line("")
	r.line(r.st.Report.Render(fmt.Sprintf("--- Connection log: %s ---", location)))

	var buf strings.Builder
	if err := dump(&buf); err != nil {
		r.Error(err)
	} else if buf.Len() == 0 {
		r.line(r.st.Warning.Render("Connection log is empty."))
	} else {
		fmt.Fprint(r.w, buf.String())
	}

	r.line(r.st.Rule.Render(rule))
}

// Anomalies prints the anomaly detection report
func (r *Renderer) Anomalies(devices []domain.DeviceView) {
	r.line("")
	r.line(r.st.Report.Render("--- Anomaly Detection Report ---"))

	if len(devices) == 0 {
		r.line(r.st.OK.Render("No suspicious devices detected."))
		return
	}

	for _, d := range devices {
		if d.Flagged {
			r.line(r.st.Alert.Render(fmt.Sprintf(
				"[!] ALERT: %s has %d connections and is FLAGGED as suspicious.", d.Address, d.Degree)))
			continue
		}
		r.line(r.st.Alert.Render(fmt.Sprintf(
			"[!] ALERT: %s has %d connections, above the threshold.", d.Address, d.Degree)))
	}
}

// SimulationStart prints the simulation banner
func (r *Renderer) SimulationStart(steps int) {
	r.line("")
	r.line(r.st.Heading.Render(fmt.Sprintf("--- Starting Live Simulation (%d steps) ---", steps)))
}

// Step reports one simulation step
func (r *Renderer) Step(s simulate.Step) {
	if s.Skipped {
		r.line(r.st.Muted.Render(fmt.Sprintf("Skipped identical pair %s", s.A)))
		return
	}

	switch s.Result.Outcome {
	case domain.OutcomeCreated:
		r.line(r.st.OK.Render(fmt.Sprintf("Simulated connection: %s <-> %s", s.A, s.B)))
	case domain.OutcomeAlreadyExists:
		r.line(r.st.Warning.Render(fmt.Sprintf("Simulated connection already exists: %s <-> %s", s.A, s.B)))
	default:
		r.line(r.st.Alert.Render(fmt.Sprintf("Simulated connection rejected: %s <-> %s (%s)", s.A, s.B, s.Result.Outcome)))
	}

	if s.Err != nil {
		r.Error(s.Err)
	}
}

// Summary prints the totals of a simulation run
func (r *Renderer) Summary(s simulate.Summary) {
	r.line("")
	r.line(r.st.Report.Render(fmt.Sprintf(
		"Simulation complete! %d connections added (%d existing, %d skipped, %d rejected).",
		s.Created, s.Existing, s.Skipped, s.Rejected)))
	if len(s.Flagged) > 0 {
		r.line(r.st.Alert.Render("Newly flagged: " + strings.Join(s.Flagged, ", ")))
	}
}

// Devices prints a compact table of devices
func (r *Renderer) Devices(devices []domain.DeviceView) {
	if len(devices) == 0 {
		r.line(r.st.Muted.Render("No devices."))
		return
	}

	width := len("ADDRESS")
	for _, d := range devices {
		width = max(width, len(d.Address))
	}

	r.line(r.st.Heading.Render(fmt.Sprintf("%-*s  %6s  %-10s", width, "ADDRESS", "DEGREE", "STATUS")))
	for _, d := range devices {
		row := fmt.Sprintf("%-*s  %6d  %-10s", width, d.Address, d.Degree, d.Status)
		if d.IsAnomalous() {
			row = r.st.Alert.Render(row)
		}
		r.line(row)
	}
}

// Info prints a neutral message in a box
func (r *Renderer) Info(text string) {
	r.line(r.st.Box.Render(text))
}

// Error prints an error
func (r *Renderer) Error(err error) {
	r.line(r.st.Alert.Render("Error: " + err.Error()))
}
