package simulate

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/domain"
	"netwatch/internal/service"
	"netwatch/internal/store"
)

var addressPattern = regexp.MustCompile(`^192\.168\.([1-5])\.([1-9]|[1-4][0-9]|50)$`)

type recordingConnector struct {
	calls [][2]string
	err   error
}

func (c *recordingConnector) Connect(ctx context.Context, a, b string) (service.ConnectResult, error) {
	c.calls = append(c.calls, [2]string{a, b})
	return service.ConnectResult{Outcome: domain.OutcomeCreated, A: a, B: b}, c.err
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestDriverGeneratesAddressesInRange(t *testing.T) {
	conn := &recordingConnector{}
	d := NewDriver(conn, Config{Steps: 200, Subnets: 5, Hosts: 50}, seeded())

	var steps []Step
	d.OnStep(func(s Step) { steps = append(steps, s) })

	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, sum.Steps)
	assert.Len(t, steps, 200)
	assert.Equal(t, 200, sum.Created+sum.Skipped)
	assert.Len(t, conn.calls, sum.Created)

	for _, c := range conn.calls {
		assert.Regexp(t, addressPattern, c[0])
		assert.Regexp(t, addressPattern, c[1])
		assert.NotEqual(t, c[0], c[1])
	}
}

func TestDriverIsReproducible(t *testing.T) {
	run := func() [][2]string {
		conn := &recordingConnector{}
		_, err := NewDriver(conn, Config{Steps: 25, Subnets: 5, Hosts: 50}, seeded()).Run(context.Background())
		require.NoError(t, err)
		return conn.calls
	}

	assert.Equal(t, run(), run())
}

func TestDriverSkipsIdenticalPairs(t *testing.T) {
	conn := &recordingConnector{}
	slept := 0
	d := NewDriver(conn, Config{Steps: 5, Delay: time.Second, Subnets: 1, Hosts: 1}, seeded())
	d.sleep = func(ctx context.Context, _ time.Duration) error {
		slept++
		return nil
	}

	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Steps: 5, Skipped: 5}, sum)
	assert.Empty(t, conn.calls)
	assert.Zero(t, slept)
}

func TestDriverSleepsBetweenSteps(t *testing.T) {
	conn := &recordingConnector{}
	var delays []time.Duration
	d := NewDriver(conn, Config{Steps: 50, Delay: 250 * time.Millisecond, Subnets: 5, Hosts: 50}, seeded())
	d.sleep = func(ctx context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, delays, sum.Created)
	for _, delay := range delays {
		assert.Equal(t, 250*time.Millisecond, delay)
	}
}

func TestDriverStopsOnCancel(t *testing.T) {
	conn := &recordingConnector{}
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDriver(conn, Config{Steps: 100, Delay: time.Hour, Subnets: 5, Hosts: 50}, seeded())
	d.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	sum, err := d.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, conn.calls, 1)
	assert.Equal(t, 1, sum.Created)
	assert.Less(t, sum.Steps, 100)
}

func TestDriverCountsStoreFailures(t *testing.T) {
	conn := &recordingConnector{err: errors.New("disk full")}
	d := NewDriver(conn, Config{Steps: 10, Subnets: 5, Hosts: 50}, seeded())

	sum, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sum.Created, sum.StoreFailures)
}

func TestDriverRejectsEmptyAddressSpace(t *testing.T) {
	_, err := NewDriver(&recordingConnector{}, Config{Steps: 1}, seeded()).Run(context.Background())
	assert.Error(t, err)
}

func TestDriverThroughService(t *testing.T) {
	connLog := store.NewFileLog(filepath.Join(t.TempDir(), "connections.csv"))
	svc := service.NewNetworkService(connLog, nil, service.DefaultOptions())

	// Two hosts leave a single possible edge
	d := NewDriver(svc, Config{Steps: 30, Subnets: 1, Hosts: 2}, seeded())
	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 30, sum.Created+sum.Existing+sum.Skipped)
	assert.Equal(t, 1, svc.EdgeCount())

	n, err := connLog.Replay(context.Background(), func(a, b string) {})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
