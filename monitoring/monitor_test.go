package monitoring_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memmodel/lane"
	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/memory"
	"github.com/sarchlab/memmodel/monitoring"
)

var _ = Describe("Monitor", func() {
	var (
		engine  *lane.Engine
		handler http.Handler
	)

	BeforeEach(func() {
		bank := memory.NewBank(64*mem.KB, 0, 1)
		engine = lane.MakeBuilder().
			WithBackend(bank).
			WithEndianness(mem.LittleEndian).
			Build()
		handler = monitoring.NewMonitor(engine, bank).Handler()
	})

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		out := map[string]any{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())

		return out
	}

	It("should report the configuration", func() {
		rec := do(http.MethodGet, "/api/config", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		cfg := decode(rec)
		Expect(cfg["endianness"]).To(Equal("little"))
		Expect(cfg["nodes"]).To(Equal([]any{0.0, 1.0}))
	})

	It("should write and read through the engine", func() {
		rec := do(http.MethodPost, "/api/mem/0/0x100", `{"data": 3405705229}`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = do(http.MethodGet, "/api/mem/0/0x100?be=0x2", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["data"]).To(Equal(float64(0xf000)))

		data, err := engine.Read(0x100, lane.EnableWord, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(uint32(0xcafef00d)))
	})

	It("should honor the byte enable of a write", func() {
		do(http.MethodPut, "/api/mem/1/0x10", `{"data": 4278190080, "be": 8}`)

		rec := do(http.MethodGet, "/api/dump/1/0x10/4", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["bytes"]).To(Equal("000000ff"))
	})

	It("should count transactions", func() {
		do(http.MethodPost, "/api/mem/0/0x0", `{"data": 1}`)
		do(http.MethodGet, "/api/mem/0/0x0", "")

		rec := do(http.MethodGet, "/api/stats", "")

		stats := decode(rec)
		Expect(stats["reads"]).To(Equal(1.0))
		Expect(stats["writes"]).To(Equal(1.0))
	})

	It("should map storage errors to status codes", func() {
		Expect(do(http.MethodGet, "/api/mem/5/0x0", "").Code).
			To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/api/mem/0/0x20000000", "").Code).
			To(Equal(http.StatusRequestedRangeNotSatisfiable))
		Expect(do(http.MethodGet, "/api/mem/0/zzz", "").Code).
			To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPost, "/api/mem/0/0x0", "{").Code).
			To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/api/dump/0/0x0/0x100000", "").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should report process resources", func() {
		rec := do(http.MethodGet, "/api/resource", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)).To(HaveKey("memory_size"))
	})

	It("should serialize the engine", func() {
		rec := do(http.MethodGet, "/api/engine", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})
})
