package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"netwatch/internal/codec"
	"netwatch/internal/service"
	"netwatch/internal/simulate"
)

// Menu choices
const (
	ChoiceAddConnection = iota + 1
	ChoiceDisplayMap
	ChoiceDetectAnomalies
	ChoiceLoadStore
	ChoiceSimulate
	ChoiceExit
	ChoiceExport
)

// Menu is the interactive loop over a NetworkService
type Menu struct {
	svc        *service.NetworkService
	in         *bufio.Scanner
	out        io.Writer
	render     *Renderer
	simulation simulate.Config
	rng        *rand.Rand
}

// MenuOptions configures optional menu behavior
type MenuOptions struct {
	Simulation simulate.Config
	Rand       *rand.Rand // nil seeds from the runtime
}

// NewMenu creates a menu reading whitespace separated tokens from in
func NewMenu(svc *service.NetworkService, in io.Reader, out io.Writer, opts MenuOptions) *Menu {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	return &Menu{
		svc:        svc,
		in:         scanner,
		out:        out,
		render:     NewRenderer(out),
		simulation: opts.Simulation,
		rng:        opts.Rand,
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		m.prompt()
		token, ok := m.next()
		if !ok {
			fmt.Fprintln(m.out)
			return m.in.Err()
		}

		choice, err := strconv.Atoi(token)
		if err != nil {
			choice = 0
		}

		switch choice {
		case ChoiceAddConnection:
			if !m.addConnection(ctx) {
				fmt.Fprintln(m.out)
				return m.in.Err()
			}
		case ChoiceDisplayMap:
			m.displayMap(ctx)
		case ChoiceDetectAnomalies:
			m.render.Anomalies(m.svc.Anomalies())
		case ChoiceLoadStore:
			m.load(ctx)
		case ChoiceSimulate:
			if err := m.simulate(ctx); errors.Is(err, context.Canceled) {
				return nil
			}
		case ChoiceExit:
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		case ChoiceExport:
			m.export()
		default:
			m.render.line(m.render.st.Alert.Render("Invalid choice! Try again."))
		}
	}
}

func (m *Menu) prompt() {
	st := m.render.st
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, st.Heading.Render("Menu:"))
	fmt.Fprintln(m.out, "1. Add Connection (Manual Input)")
	fmt.Fprintln(m.out, "2. Display Network Map")
	fmt.Fprintln(m.out, "3. Detect Anomalies")
	fmt.Fprintln(m.out, "4. Load Connections from Store")
	fmt.Fprintln(m.out, "5. Simulate Random Connections")
	fmt.Fprintln(m.out, "6. Exit")
	fmt.Fprintln(m.out, "7. Export Network Map (YAML)")
	fmt.Fprint(m.out, "Enter your choice: ")
}

func (m *Menu) next() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

// addConnection returns false when input ended mid-prompt
func (m *Menu) addConnection(ctx context.Context) bool {
	fmt.Fprint(m.out, "Enter address 1: ")
	a, ok := m.next()
	if !ok {
		return false
	}
	fmt.Fprint(m.out, "Enter address 2: ")
	b, ok := m.next()
	if !ok {
		return false
	}

	res, err := m.svc.Connect(ctx, a, b)
	ReportConnect(m.render, m.svc, res, err)
	return true
}

func (m *Menu) displayMap(ctx context.Context) {
	m.render.NetworkMap(m.svc.NetworkMap())
	m.render.StoreDump(m.svc.StoreLocation(), func(w io.Writer) error {
		return m.svc.DumpStore(ctx, w)
	})
}

func (m *Menu) load(ctx context.Context) {
	n, err := m.svc.LoadFromStore(ctx)
	if err != nil {
		m.render.Error(err)
		return
	}
	m.render.Loaded(n, m.svc.StoreLocation())
}

func (m *Menu) simulate(ctx context.Context) error {
	driver := simulate.NewDriver(m.svc, m.simulation, m.rng)
	driver.OnStep(func(s simulate.Step) {
		m.render.Step(s)
		for _, addr := range s.Result.NewlyFlagged {
			degree, _ := m.svc.Degree(addr)
			m.render.Flagged(addr, degree)
		}
	})

	m.render.SimulationStart(m.simulation.Steps)
	sum, err := driver.Run(ctx)
	m.render.Summary(sum)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.render.Error(err)
	}
	return err
}

func (m *Menu) export() {
	nm := m.svc.NetworkMap()
	if err := codec.NewYAMLCodec().Export(&nm, m.out); err != nil {
		m.render.Error(err)
	}
}

// ReportConnect renders a connect result and announces newly flagged devices
func ReportConnect(r *Renderer, svc *service.NetworkService, res service.ConnectResult, err error) {
	r.ConnectResult(res, err)
	for _, addr := range res.NewlyFlagged {
		degree, _ := svc.Degree(addr)
		r.Flagged(addr, degree)
	}
}
