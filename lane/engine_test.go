package lane_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memmodel/lane"
	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/memory"
)

const (
	addr1     = uint32(0x00001000)
	addr2     = uint32(0x20000000)
	testdata1 = uint32(0x12345678)
	testdata2 = uint32(0xcafef00d)
	testdata3 = uint32(0x00001964)
	testdata4 = uint32(0x000000aa)
)

func newEngine(endian mem.Endianness) (*lane.Engine, *memory.Bank) {
	bank := memory.NewBank(1*mem.GB, 0, 1)
	engine := lane.MakeBuilder().
		WithBackend(bank).
		WithEndianness(endian).
		Build()

	return engine, bank
}

func mustRead(e *lane.Engine, addr uint32, be uint8, node uint32) uint32 {
	data, err := e.Read(addr, be, node)
	Expect(err).NotTo(HaveOccurred())

	return data
}

func mustWrite(e *lane.Engine, addr, data uint32, be uint8, node uint32) {
	Expect(e.Write(addr, data, be, node)).To(Succeed())
}

var _ = Describe("Engine with a bank", func() {
	Context("little-endian", func() {
		var (
			engine *lane.Engine
			bank   *memory.Bank
		)

		BeforeEach(func() {
			engine, bank = newEngine(mem.LittleEndian)

			mustWrite(engine, addr1, testdata1, lane.EnableWord, 0)
			mustWrite(engine, addr2, testdata2, lane.EnableWord, 0)
		})

		It("should read back the written words", func() {
			Expect(mustRead(engine, addr1, lane.EnableWord, 0)).To(Equal(testdata1))
			Expect(mustRead(engine, addr2, lane.EnableWord, 0)).To(Equal(testdata2))
		})

		It("should read each byte lane in address order", func() {
			expected := []uint32{0x0d, 0xf0, 0xfe, 0xca}

			for idx := range 4 {
				be := uint8(1) << idx
				data := mustRead(engine, addr2+uint32(idx), be, 0)

				Expect(data).To(Equal(expected[idx] << (idx * 8)))
			}
		})

		It("should store the word least significant byte first", func() {
			raw, err := bank.Dump(0, uint64(addr2), 4)

			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(Equal([]byte{0x0d, 0xf0, 0xfe, 0xca}))
		})

		It("should read half-words in their lanes", func() {
			Expect(mustRead(engine, addr1, lane.EnableLow, 0)).
				To(Equal(uint32(0x00005678)))
			Expect(mustRead(engine, addr1, lane.EnableHigh, 0)).
				To(Equal(uint32(0x12340000)))
		})

		It("should replace the top half-word with a lane-placed write", func() {
			mustWrite(engine, addr1+2, testdata3<<16, lane.EnableHigh, 0)

			Expect(mustRead(engine, addr1, lane.EnableWord, 0)).
				To(Equal((testdata3 << 16) | (testdata1 & 0x0000ffff)))
		})

		It("should clear the top half-word when the data is not lane-placed",
			func() {
				mustWrite(engine, addr1+2, testdata3, lane.EnableHigh, 0)

				Expect(mustRead(engine, addr1, lane.EnableWord, 0)).
					To(Equal(uint32(0x00005678)))
			})

		It("should replace a single byte", func() {
			mustWrite(engine, addr2+3, testdata4<<24, lane.EnableByte3, 0)

			Expect(mustRead(engine, addr2, lane.EnableWord, 0)).
				To(Equal((testdata4 << 24) | (testdata2 & 0x00ffffff)))
		})

		It("should only touch the low half-word with 0x3", func() {
			mustWrite(engine, addr2, 0x0000beef, lane.EnableLow, 0)

			word := mustRead(engine, addr2, lane.EnableWord, 0)
			Expect(word & 0xffff).To(Equal(uint32(0xbeef)))
			Expect(word >> 16).To(Equal(testdata2 >> 16))
		})

		It("should only touch the high half-word with 0xc", func() {
			mustWrite(engine, addr2, 0xbeef0000, lane.EnableHigh, 0)

			word := mustRead(engine, addr2, lane.EnableWord, 0)
			Expect(word >> 16).To(Equal(uint32(0xbeef)))
			Expect(word & 0xffff).To(Equal(testdata2 & 0xffff))
		})

		It("should use the raw address for fallback masks", func() {
			mustWrite(engine, 0x3001, 0xaabbccdd, 0x5, 0)

			raw, err := bank.Dump(0, 0x3000, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(Equal([]byte{0, 0xdd, 0xcc, 0xbb, 0xaa, 0}))

			Expect(mustRead(engine, 0x3001, 0x0, 0)).To(Equal(uint32(0xaabbccdd)))
		})

		It("should force alignment for byte accesses", func() {
			mustWrite(engine, 0x3003, 0x000000ee, lane.EnableByte0, 0)

			raw, _ := bank.Dump(0, 0x3000, 4)
			Expect(raw).To(Equal([]byte{0xee, 0, 0, 0}))
		})
	})

	Context("big-endian", func() {
		var engine *lane.Engine

		BeforeEach(func() {
			engine, _ = newEngine(mem.BigEndian)

			mustWrite(engine, addr1, testdata1, lane.EnableWord, 0)
			mustWrite(engine, addr2, testdata2, lane.EnableWord, 0)
		})

		It("should read back the written words", func() {
			Expect(mustRead(engine, addr1, lane.EnableWord, 0)).To(Equal(testdata1))
		})

		It("should read the byte lanes in mirror order", func() {
			expected := []uint32{0xca, 0xfe, 0xf0, 0x0d}

			for idx := range 4 {
				be := uint8(1) << idx
				data := mustRead(engine, addr2+uint32(idx), be, 0)

				Expect(data).To(Equal(expected[idx] << (idx * 8)))
			}
		})

		It("should store a high half-word at the upper address", func() {
			mustWrite(engine, addr1+2, testdata3<<16, lane.EnableHigh, 0)

			Expect(mustRead(engine, addr1, lane.EnableWord, 0)).
				To(Equal(uint32(0x12341964)))
		})
	})

	Describe("properties", func() {
		var (
			engine *lane.Engine
			rng    *rand.Rand
		)

		BeforeEach(func() {
			engine, _ = newEngine(mem.LittleEndian)
			rng = rand.New(rand.NewPCG(1, 2))
		})

		randomAddr := func() uint32 {
			return rng.Uint32() % uint32(1*mem.GB-4)
		}

		It("should round-trip full words", func() {
			for range 200 {
				addr := randomAddr() &^ 0x3
				val := rng.Uint32()

				mustWrite(engine, addr, val, lane.EnableWord, 0)
				Expect(mustRead(engine, addr, lane.EnableWord, 0)).To(Equal(val))
			}
		})

		It("should round-trip bytes in every lane", func() {
			for range 200 {
				addr := randomAddr()
				b := rng.Uint32() & 0xff
				l := rng.IntN(4)
				be := uint8(1) << l

				mustWrite(engine, addr, b<<(l*8), be, 0)
				Expect(mustRead(engine, addr, be, 0)).To(Equal(b << (l * 8)))
			}
		})

		It("should keep nodes independent", func() {
			for range 100 {
				addr := randomAddr() &^ 0x3
				before := mustRead(engine, addr, lane.EnableWord, 1)

				mustWrite(engine, addr, rng.Uint32(), lane.EnableWord, 0)

				Expect(mustRead(engine, addr, lane.EnableWord, 1)).To(Equal(before))
			}
		})

		It("should be idempotent", func() {
			_, once := newEngine(mem.LittleEndian)
			_, twice := newEngine(mem.LittleEndian)
			eOnce := lane.MakeBuilder().
				WithBackend(once).WithEndianness(mem.LittleEndian).Build()
			eTwice := lane.MakeBuilder().
				WithBackend(twice).WithEndianness(mem.LittleEndian).Build()

			for _, be := range []uint8{0x1, 0x2, 0x4, 0x8, 0x3, 0xc, 0xf, 0x6} {
				addr := randomAddr()
				val := rng.Uint32()

				mustWrite(eOnce, addr, val, be, 0)
				mustWrite(eTwice, addr, val, be, 0)
				mustWrite(eTwice, addr, val, be, 0)

				a, _ := once.Dump(0, uint64(addr&^0x3), 8)
				b, _ := twice.Dump(0, uint64(addr&^0x3), 8)
				Expect(a).To(Equal(b))
			}
		})
	})

	Describe("storage errors", func() {
		It("should surface out of range addresses", func() {
			bank := memory.NewBank(4 * mem.KB)
			engine := lane.MakeBuilder().WithBackend(bank).Build()

			_, err := engine.Read(addr2, lane.EnableWord, 0)
			Expect(err).To(MatchError(mem.ErrOutOfRange))

			err = engine.Write(addr2, 1, lane.EnableByte2, 0)
			Expect(err).To(MatchError(mem.ErrOutOfRange))
		})

		It("should surface unknown nodes", func() {
			engine, _ := newEngine(mem.BigEndian)

			_, err := engine.Read(0, lane.EnableWord, 42)

			Expect(err).To(MatchError(mem.ErrUnknownNode))
		})
	})
})
