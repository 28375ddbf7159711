// Package simulate drives synthetic connection traffic through the core API.
//
// The driver is an ordinary caller of NetworkService.Connect: generated
// connections are deduplicated, flagged and logged exactly like manual ones.
package simulate

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"netwatch/internal/domain"
	"netwatch/internal/service"
)

// Connector is the part of the service the driver needs
type Connector interface {
	Connect(ctx context.Context, a, b string) (service.ConnectResult, error)
}

// Config bounds a simulation run
type Config struct {
	Steps   int
	Delay   time.Duration
	Subnets int // third octet is drawn from 1..Subnets
	Hosts   int // fourth octet is drawn from 1..Hosts
}

// Step reports one iteration of a run
type Step struct {
	Index   int
	A       string
	B       string
	Skipped bool // identical addresses were drawn
	Result  service.ConnectResult
	Err     error
}

// Summary totals a run
type Summary struct {
	Steps         int      `json:"steps"`
	Created       int      `json:"created"`
	Existing      int      `json:"existing"`
	Skipped       int      `json:"skipped"`
	Rejected      int      `json:"rejected"`
	StoreFailures int      `json:"store_failures"`
	Flagged       []string `json:"flagged,omitempty"`
}

// Driver generates random connections between 192.168.x.y addresses
type Driver struct {
	conn   Connector
	cfg    Config
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
	onStep func(Step)
}

// NewDriver creates a driver. A nil rng seeds one from the runtime.
func NewDriver(conn Connector, cfg Config, rng *rand.Rand) *Driver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Driver{
		conn:  conn,
		cfg:   cfg,
		rng:   rng,
		sleep: sleepContext,
	}
}

// OnStep registers a callback invoked after every step
func (d *Driver) OnStep(fn func(Step)) {
	d.onStep = fn
}

// Run performs cfg.Steps iterations. Identical pairs are skipped without
// waiting; every other step is followed by the configured delay. A
// cancelled context stops the run and returns the partial summary.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	if d.cfg.Subnets <= 0 || d.cfg.Hosts <= 0 {
		return Summary{}, fmt.Errorf("simulate: subnets and hosts must be positive (got %d, %d)", d.cfg.Subnets, d.cfg.Hosts)
	}

	var sum Summary
	for i := 0; i < d.cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		step := Step{Index: i, A: d.address(), B: d.address()}
		sum.Steps++

		if step.A == step.B {
			step.Skipped = true
			sum.Skipped++
			d.report(step)
			continue
		}

		step.Result, step.Err = d.conn.Connect(ctx, step.A, step.B)
		if step.Err != nil {
			log.Printf("simulate: step %d %s <-> %s: %v", i, step.A, step.B, step.Err)
			sum.StoreFailures++
		}

		switch step.Result.Outcome {
		case domain.OutcomeCreated:
			sum.Created++
		case domain.OutcomeAlreadyExists:
			sum.Existing++
		default:
			sum.Rejected++
		}
		sum.Flagged = append(sum.Flagged, step.Result.NewlyFlagged...)
		d.report(step)

		if d.cfg.Delay > 0 {
			if err := d.sleep(ctx, d.cfg.Delay); err != nil {
				return sum, err
			}
		}
	}

	return sum, nil
}

func (d *Driver) address() string {
	return fmt.Sprintf("192.168.%d.%d", d.rng.IntN(d.cfg.Subnets)+1, d.rng.IntN(d.cfg.Hosts)+1)
}

func (d *Driver) report(s Step) {
	if d.onStep != nil {
		d.onStep(s)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
