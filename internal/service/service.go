package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"unicode"

	"netwatch/internal/anomaly"
	"netwatch/internal/domain"
	"netwatch/internal/graph"
	"netwatch/internal/metrics"
	"netwatch/internal/registry"
	"netwatch/internal/store"
)

// Options configures a NetworkService. Threshold and MaxDevices are used as
// given: a zero Threshold flags a device on its first connection and a zero
// MaxDevices is unbounded. DefaultOptions has the usual values.
type Options struct {
	Threshold  int
	MaxDevices int
	Metrics    *metrics.Collector // optional
}

// DefaultOptions flags above anomaly.DefaultThreshold with no device limit
func DefaultOptions() Options {
	return Options{Threshold: anomaly.DefaultThreshold}
}

// ConnectResult describes the effect of a Connect call
type ConnectResult struct {
	Outcome      domain.Outcome `json:"outcome"`
	A            string         `json:"a"`
	B            string         `json:"b"`
	NewlyFlagged []string       `json:"newly_flagged,omitempty"`
	Persisted    bool           `json:"persisted"`
}

// ImportResult contains statistics about an import operation
type ImportResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Rejected int `json:"rejected"`
	Flagged  int `json:"flagged"`
}

// NetworkService coordinates the graph, the flagger and the connection log.
// Every exported method holds one lock, so the resolve-connect-flag-log
// sequence of a connection is never interleaved with another caller.
type NetworkService struct {
	mu       sync.Mutex
	reg      *registry.Registry
	flagger  *anomaly.Flagger
	graph    *graph.Graph
	log      store.Log
	eventBus *EventBus
	metrics  *metrics.Collector
}

// NewNetworkService creates a service over an empty graph
func NewNetworkService(connLog store.Log, eventBus *EventBus, opts Options) *NetworkService {
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	reg := registry.New(opts.MaxDevices)
	flagger := anomaly.New(reg, opts.Threshold)

	return &NetworkService{
		reg:      reg,
		flagger:  flagger,
		graph:    graph.New(reg, flagger),
		log:      connLog,
		eventBus: eventBus,
		metrics:  opts.Metrics,
	}
}

// Connect adds a connection between two addresses and logs it once if it
// was created. A log failure is returned alongside the Created result; the
// graph keeps the edge.
func (s *NetworkService) Connect(ctx context.Context, a, b string) (ConnectResult, error) {
	if err := validateAddress(a); err != nil {
		return ConnectResult{A: a, B: b}, err
	}
	if err := validateAddress(b); err != nil {
		return ConnectResult{A: a, B: b}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.connect(a, b, true)
	if !res.Outcome.Mutated() {
		return res, nil
	}

	if err := s.append(ctx, a, b); err != nil {
		return res, err
	}
	res.Persisted = true
	return res, nil
}

// LoadFromStore replays the connection log through the connect path without
// appending. It returns the number of records that parsed; replaying the same
// log twice adds nothing the second time.
func (s *NetworkService) LoadFromStore(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.graph.EdgeCount()
	n, err := s.log.Replay(ctx, func(a, b string) {
		s.connect(a, b, false)
	})
	s.metrics.ObserveReplay(n)
	if err != nil {
		return n, fmt.Errorf("load connections from %s: %w", s.log.Location(), err)
	}

	created := s.graph.EdgeCount() - before
	log.Printf("service: replayed %d records from %s, %d new connections", n, s.log.Location(), created)
	s.eventBus.Publish(Event{
		Type: EventStoreReplayed,
		Payload: map[string]interface{}{
			"location": s.log.Location(),
			"records":  n,
			"created":  created,
		},
	})
	return n, nil
}

// AppendToStore writes one record to the log without touching the graph
func (s *NetworkService) AppendToStore(ctx context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(ctx, a, b)
}

// Import connects every edge of m in order. Device flags in m are ignored;
// they are derived again from the imported degrees.
func (s *NetworkService) Import(ctx context.Context, m domain.NetworkMap) (*ImportResult, error) {
	result := &ImportResult{}
	var errs []error

	for _, e := range m.Edges {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := s.Connect(ctx, e.A, e.B)
		switch {
		case errors.Is(err, domain.ErrInvalidAddress):
			result.Rejected++
			errs = append(errs, err)
			continue
		case err != nil:
			errs = append(errs, err)
		}

		switch res.Outcome {
		case domain.OutcomeCreated:
			result.Created++
		case domain.OutcomeAlreadyExists:
			result.Existing++
		default:
			result.Rejected++
		}
		result.Flagged += len(res.NewlyFlagged)
	}

	return result, errors.Join(errs...)
}

// IsFlagged reports the sticky flag of a known device
func (s *NetworkService) IsFlagged(address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.find(address)
	if err != nil {
		return false, err
	}
	return s.flagger.IsFlagged(id), nil
}

// IsSuspicious reports whether a known device currently exceeds the threshold
func (s *NetworkService) IsSuspicious(address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.find(address)
	if err != nil {
		return false, err
	}
	return s.flagger.IsSuspicious(id), nil
}

// Degree returns the number of distinct neighbors of a known device
func (s *NetworkService) Degree(address string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.find(address)
	if err != nil {
		return 0, err
	}
	return s.graph.Degree(id)
}

// Device returns the view of a single device
func (s *NetworkService) Device(address string) (domain.DeviceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.find(address)
	if err != nil {
		return domain.DeviceView{}, err
	}
	return s.view(id), nil
}

// ListDevices returns every device in registration order with neighbors in
// insertion order
func (s *NetworkService) ListDevices() []domain.DeviceView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views()
}

// Anomalies returns the devices that are flagged or currently suspicious
func (s *NetworkService) Anomalies() []domain.DeviceView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.DeviceView, 0)
	for _, v := range s.views() {
		if v.IsAnomalous() {
			out = append(out, v)
		}
	}
	return out
}

// NetworkMap returns a snapshot of the whole graph for rendering or export
func (s *NetworkService) NetworkMap() domain.NetworkMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := domain.NewNetworkMap(s.flagger.Threshold())
	for _, v := range s.views() {
		m.AddDevice(v)
	}
	for _, e := range s.graph.Edges() {
		m.AddEdge(e)
	}
	return *m
}

// DumpStore writes the raw contents of the connection log to w
func (s *NetworkService) DumpStore(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := store.Dump(ctx, s.log, w); err != nil {
		return fmt.Errorf("dump %s: %w", s.log.Location(), err)
	}
	return nil
}

// DeviceCount returns the number of registered devices
func (s *NetworkService) DeviceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Count()
}

// EdgeCount returns the number of distinct connections
func (s *NetworkService) EdgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.EdgeCount()
}

// Threshold returns the anomaly threshold
func (s *NetworkService) Threshold() int {
	return s.flagger.Threshold()
}

// Capacity returns the device limit, or registry.Unbounded
func (s *NetworkService) Capacity() int {
	return s.reg.Capacity()
}

// StoreLocation describes where connections are logged
func (s *NetworkService) StoreLocation() string {
	return s.log.Location()
}

// Events returns the bus the service publishes on
func (s *NetworkService) Events() *EventBus {
	return s.eventBus
}

// connect runs one graph connect and reports it. Callers hold s.mu.
func (s *NetworkService) connect(a, b string, announce bool) ConnectResult {
	gr := s.graph.Connect(a, b)
	res := ConnectResult{
		Outcome:      gr.Outcome,
		A:            a,
		B:            b,
		NewlyFlagged: gr.NewlyFlagged,
	}

	s.metrics.ObserveConnect(gr.Outcome, s.reg.Count(), s.graph.EdgeCount(), len(gr.NewlyFlagged))

	for _, addr := range gr.NewlyFlagged {
		degree := s.reg.Record(s.mustFind(addr)).Degree
		log.Printf("service: device %s flagged at degree %d (threshold %d)", addr, degree, s.flagger.Threshold())
		s.eventBus.Publish(Event{
			Type: EventDeviceFlagged,
			Payload: map[string]interface{}{
				"address":   addr,
				"degree":    degree,
				"threshold": s.flagger.Threshold(),
			},
		})
	}

	if !announce {
		return res
	}

	payload := map[string]interface{}{"a": a, "b": b, "outcome": gr.Outcome.String()}
	switch gr.Outcome {
	case domain.OutcomeCreated:
		s.eventBus.Publish(Event{Type: EventConnectionCreated, Payload: payload})
	case domain.OutcomeAlreadyExists:
		s.eventBus.Publish(Event{Type: EventConnectionExists, Payload: payload})
	default:
		log.Printf("service: rejected %s <-> %s: %s", a, b, gr.Outcome)
		s.eventBus.Publish(Event{Type: EventConnectionRejected, Payload: payload})
	}
	return res
}

// append writes one record and reports failures. Callers hold s.mu.
func (s *NetworkService) append(ctx context.Context, a, b string) error {
	err := s.log.Append(ctx, a, b)
	s.metrics.ObserveAppend(err)
	if err != nil {
		log.Printf("service: failed to log %s <-> %s: %v", a, b, err)
		s.eventBus.Publish(Event{
			Type: EventStoreAppendFailed,
			Payload: map[string]interface{}{
				"a":     a,
				"b":     b,
				"error": err.Error(),
			},
		})
		return fmt.Errorf("log connection %s <-> %s: %w", a, b, err)
	}
	return nil
}

func (s *NetworkService) find(address string) (domain.DeviceID, error) {
	id, ok := s.reg.Find(address)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, address)
	}
	return id, nil
}

func (s *NetworkService) mustFind(address string) domain.DeviceID {
	id, _ := s.reg.Find(address)
	return id
}

func (s *NetworkService) views() []domain.DeviceView {
	devices := s.reg.Devices()
	out := make([]domain.DeviceView, 0, len(devices))
	for _, d := range devices {
		out = append(out, s.view(d.ID))
	}
	return out
}

func (s *NetworkService) view(id domain.DeviceID) domain.DeviceView {
	d := s.reg.Record(id)
	neighbors := make([]string, 0, d.Degree)
	for n := range s.graph.Neighbors(id) {
		neighbors = append(neighbors, s.reg.Record(n).Address)
	}
	return domain.DeviceView{
		Address:    d.Address,
		Degree:     d.Degree,
		Flagged:    d.Flagged,
		Suspicious: s.flagger.IsSuspicious(id),
		Status:     s.flagger.Status(id),
		Neighbors:  neighbors,
	}
}

// validateAddress rejects addresses that could not be logged and read back
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address is required", domain.ErrInvalidAddress)
	}
	if strings.ContainsRune(address, ',') || strings.IndexFunc(address, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	return nil
}
