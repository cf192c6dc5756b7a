// Package monitoring turns a simulation engine into an HTTP service that
// accepts runs, reports their progress and manages the trace directory.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/mmusim/mem/addrtrace"
	"github.com/sarchlab/mmusim/sim"
	"github.com/sarchlab/mmusim/sim/id"
)

// Monitor serves the simulator API.
type Monitor struct {
	engine     *sim.Engine
	store      *addrtrace.Store
	portNumber int
	logger     *log.Logger
	idGen      id.IDGenerator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		logger: log.New(io.Discard, "", 0),
		idGen:  id.NewIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger that reports requests that fail.
func (m *Monitor) WithLogger(logger *log.Logger) *Monitor {
	m.logger = logger
	return m
}

// RegisterEngine registers the engine that executes runs. The monitor keeps a
// progress bar for every active run of the engine.
func (m *Monitor) RegisterEngine(e *sim.Engine) {
	m.engine = e
	e.AcceptHook(newRunProgressHook(m))
}

// RegisterTraceStore registers the trace directory.
func (m *Monitor) RegisterTraceStore(s *addrtrace.Store) {
	m.store = s
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of all the API routes.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/run-simulation", m.runSimulation).Methods(http.MethodPost)
	r.HandleFunc("/api/current-stats", m.currentStats).Methods(http.MethodGet)
	r.HandleFunc("/api/list-tests", m.listTests).Methods(http.MethodGet)
	r.HandleFunc("/api/get-test/{name}", m.getTest).Methods(http.MethodGet)
	r.HandleFunc("/api/gerar-trace", m.generateTrace).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/state", m.engineState)

	return r
}

// StartServer starts serving in the background and returns the address it
// listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	addr := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving the simulator with %s\n", addr)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Printf("server stopped: %v", err)
		}
	}()

	return addr, nil
}

// Shutdown stops the server started by StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

type errorRsp struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, sim.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, sim.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (m *Monitor) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.logger.Printf("writing response: %v", err)
	}
}

func (m *Monitor) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		m.logger.Printf("request failed: %v", err)
	}

	m.writeJSON(w, status, errorRsp{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return fmt.Errorf("%w: malformed request body: %v", sim.ErrValidation, err)
	}

	return nil
}

type runRsp struct {
	Statistics        sim.Statistics `json:"statistics"`
	Logs              []string       `json:"logs"`
	RunID             string         `json:"run_id"`
	State             sim.State      `json:"state"`
	Partial           bool           `json:"partial"`
	LogTruncated      bool           `json:"log_truncated"`
	DroppedLogEntries int            `json:"dropped_log_entries"`
	Error             string         `json:"error,omitempty"`
}

func (m *Monitor) runSimulation(w http.ResponseWriter, r *http.Request) {
	if m.engine == nil {
		m.writeError(w, fmt.Errorf("%w: no engine registered", sim.ErrNotFound))
		return
	}

	req := sim.RunRequest{}
	if err := decodeBody(r, &req); err != nil {
		m.writeError(w, err)
		return
	}

	run, err := m.engine.Start(req)
	if err != nil {
		m.writeError(w, err)
		return
	}

	result, err := run.Wait(r.Context())
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return
	}

	logs := result.Summary()
	logs = append(logs, "")
	logs = append(logs, result.Logs...)

	rsp := runRsp{
		Statistics:        result.Statistics,
		Logs:              logs,
		RunID:             result.RunID,
		State:             result.State,
		Partial:           result.Partial,
		LogTruncated:      result.LogTruncated,
		DroppedLogEntries: result.DroppedLogEntries,
	}

	status := http.StatusOK
	if err != nil {
		status = statusOf(err)
		rsp.Error = err.Error()
	}

	m.writeJSON(w, status, rsp)
}

type statsRsp struct {
	sim.Statistics
	RunID     string    `json:"run_id"`
	State     sim.State `json:"state"`
	Processed uint64    `json:"processed"`
	Partial   bool      `json:"partial"`
}

func (m *Monitor) currentStats(w http.ResponseWriter, _ *http.Request) {
	if m.engine == nil {
		m.writeJSON(w, http.StatusNotFound, map[string]string{"state": "none"})
		return
	}

	s, ok := m.engine.Holder().Snapshot()
	if !ok {
		m.writeJSON(w, http.StatusNotFound, map[string]string{"state": "none"})
		return
	}

	m.writeJSON(w, http.StatusOK, statsRsp{
		Statistics: s.Statistics,
		RunID:      s.RunID,
		State:      s.State,
		Processed:  s.Processed,
		Partial:    s.Partial,
	})
}

func (m *Monitor) storeOrError(w http.ResponseWriter) *addrtrace.Store {
	if m.store == nil {
		m.writeError(w, fmt.Errorf("%w: no trace directory", sim.ErrNotFound))
	}

	return m.store
}

func (m *Monitor) listTests(w http.ResponseWriter, _ *http.Request) {
	store := m.storeOrError(w)
	if store == nil {
		return
	}

	names, err := store.List()
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, map[string][]string{"tests": names})
}

func (m *Monitor) getTest(w http.ResponseWriter, r *http.Request) {
	store := m.storeOrError(w)
	if store == nil {
		return
	}

	f, err := store.Open(mux.Vars(r)["name"])
	if err != nil {
		m.writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, err = io.Copy(w, f)
	if err != nil {
		m.logger.Printf("sending trace: %v", err)
	}
}

type generateRsp struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
	Seed     uint64 `json:"seed"`
}

func (m *Monitor) generateTrace(w http.ResponseWriter, r *http.Request) {
	store := m.storeOrError(w)
	if store == nil {
		return
	}

	req := addrtrace.Request{}
	if err := decodeBody(r, &req); err != nil {
		m.writeError(w, err)
		return
	}

	c, err := req.Validate()
	if err != nil {
		m.writeError(w, err)
		return
	}

	if err := store.Generate(c); err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, http.StatusCreated, generateRsp{
		Filename: c.FileName,
		Message:  fmt.Sprintf("Arquivo '%s' gerado com sucesso!", c.FileName),
		Seed:     c.Seed,
	})
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]progressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.view())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, http.StatusOK, views)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	process, err := process.NewProcess(int32(pid))
	if err != nil {
		m.writeError(w, err)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		m.writeError(w, err)
		return
	}

	memorySize, err := process.MemoryInfo()
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.writeError(w, fmt.Errorf("%w: %v", sim.ErrConflict, err))
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, prof)
}

// engineState is what /api/state serializes.
type engineState struct {
	Engine    string
	ActiveRun string
	LastRun   *sim.RunConfig
	Snapshot  *sim.Snapshot
}

func (m *Monitor) engineState(w http.ResponseWriter, r *http.Request) {
	if m.engine == nil {
		m.writeError(w, fmt.Errorf("%w: no engine registered", sim.ErrNotFound))
		return
	}

	state := &engineState{Engine: m.engine.Name()}
	state.ActiveRun, _ = m.engine.Holder().Active()

	if run := m.engine.LastRun(); run != nil {
		config := run.Config()
		state.LastRun = &config
	}

	if s, ok := m.engine.Holder().Snapshot(); ok {
		state.Snapshot = &s
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(state)
	serializer.SetMaxDepth(2)

	if field := r.URL.Query().Get("field"); field != "" {
		err := serializer.SetEntryPoint(strings.Split(field, "."))
		if err != nil {
			m.writeError(w, fmt.Errorf("%w: %v", sim.ErrValidation, err))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")

	err := serializer.Serialize(w)
	if err != nil {
		m.logger.Printf("serializing state: %v", err)
	}
}
