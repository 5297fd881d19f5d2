// Package monitoring turns a memory model into a server, so that the
// contents of the simulated memory can be inspected and patched while a
// simulation runs.
package monitoring

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/memmodel/lane"
	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/memory"
	"github.com/sarchlab/memmodel/tracing"
)

const maxDumpLength = 64 * 1024

// Monitor serves the memory-model API.
type Monitor struct {
	engine     *lane.Engine
	bank       *memory.Bank
	counter    *tracing.CountTracer
	portNumber int
	listener   net.Listener
}

// NewMonitor creates a Monitor over an engine and the bank behind it. The
// monitor counts the transactions of the engine from now on.
func NewMonitor(engine *lane.Engine, bank *memory.Bank) *Monitor {
	m := &Monitor{
		engine:  engine,
		bank:    bank,
		counter: tracing.NewCountTracer(),
	}

	engine.AcceptHook(m.counter)

	return m
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

// Handler returns the router of the API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/config", m.config).Methods(http.MethodGet)
	r.HandleFunc("/api/engine", m.engineDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/mem/{node}/{addr}", m.read).Methods(http.MethodGet)
	r.HandleFunc("/api/mem/{node}/{addr}", m.write).
		Methods(http.MethodPost, http.MethodPut)
	r.HandleFunc("/api/dump/{node}/{addr}/{len}", m.dump).
		Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener
	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring memory model with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Handler())
		if err != nil {
			log.Printf("monitoring server stopped: %v", err)
		}
	}()

	return url
}

// StopServer closes the listener of a started server.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

type configRsp struct {
	Endianness       string   `json:"endianness"`
	DefaultNode      uint32   `json:"default_node"`
	StrictByteEnable bool     `json:"strict_byte_enable"`
	Capacity         uint64   `json:"capacity"`
	Nodes            []uint32 `json:"nodes"`
}

func (m *Monitor) config(w http.ResponseWriter, _ *http.Request) {
	cfg := m.engine.Config()

	writeJSON(w, configRsp{
		Endianness:       cfg.Endianness.String(),
		DefaultNode:      cfg.DefaultNode,
		StrictByteEnable: cfg.StrictByteEnable,
		Capacity:         m.bank.Capacity(),
		Nodes:            m.bank.Nodes(),
	})
}

func (m *Monitor) engineDetails(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.engine)
	serializer.SetMaxDepth(1)

	w.Header().Set("Content-Type", "application/json")

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type accessRsp struct {
	Node       uint32 `json:"node"`
	Address    uint32 `json:"address"`
	Data       uint32 `json:"data"`
	ByteEnable uint8  `json:"be"`
}

type writeReq struct {
	Data       uint32 `json:"data"`
	ByteEnable *uint8 `json:"be"`
}

func (m *Monitor) read(w http.ResponseWriter, r *http.Request) {
	node, addr, ok := parseNodeAddr(w, r)
	if !ok {
		return
	}

	be := lane.EnableWord
	if s := r.URL.Query().Get("be"); s != "" {
		v, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			http.Error(w, "invalid byte enable "+s, http.StatusBadRequest)
			return
		}

		be = uint8(v)
	}

	data, err := m.engine.Read(addr, be, node)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	writeJSON(w, accessRsp{Node: node, Address: addr, Data: data, ByteEnable: be})
}

func (m *Monitor) write(w http.ResponseWriter, r *http.Request) {
	node, addr, ok := parseNodeAddr(w, r)
	if !ok {
		return
	}

	req := writeReq{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "invalid request body: "+err.Error(),
			http.StatusBadRequest)
		return
	}

	be := lane.EnableWord
	if req.ByteEnable != nil {
		be = *req.ByteEnable
	}

	err = m.engine.Write(addr, req.Data, be, node)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	writeJSON(w, accessRsp{
		Node: node, Address: addr, Data: req.Data, ByteEnable: be,
	})
}

type dumpRsp struct {
	Node    uint32 `json:"node"`
	Address uint32 `json:"address"`
	Bytes   string `json:"bytes"`
}

func (m *Monitor) dump(w http.ResponseWriter, r *http.Request) {
	node, addr, ok := parseNodeAddr(w, r)
	if !ok {
		return
	}

	length, err := strconv.ParseUint(mux.Vars(r)["len"], 0, 32)
	if err != nil || length > maxDumpLength {
		http.Error(w, "invalid length", http.StatusBadRequest)
		return
	}

	data, err := m.bank.Dump(node, uint64(addr), length)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	writeJSON(w, dumpRsp{
		Node:    node,
		Address: addr,
		Bytes:   hex.EncodeToString(data),
	})
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.counter.Counts())
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func parseNodeAddr(
	w http.ResponseWriter,
	r *http.Request,
) (node uint32, addr uint32, ok bool) {
	vars := mux.Vars(r)

	n, err := strconv.ParseUint(vars["node"], 0, 32)
	if err != nil {
		http.Error(w, "invalid node "+vars["node"], http.StatusBadRequest)
		return 0, 0, false
	}

	a, err := strconv.ParseUint(vars["addr"], 0, 32)
	if err != nil {
		http.Error(w, "invalid address "+vars["addr"], http.StatusBadRequest)
		return 0, 0, false
	}

	return uint32(n), uint32(a), true
}

func writeAccessError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch mem.KindOf(err) {
	case mem.UnknownNode:
		status = http.StatusNotFound
	case mem.OutOfRange:
		status = http.StatusRequestedRangeNotSatisfiable
	case mem.InvalidByteEnable:
		status = http.StatusBadRequest
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
