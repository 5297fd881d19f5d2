package memory_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memmodel/mem"
	"github.com/sarchlab/memmodel/memory"
)

var _ = Describe("Storage", func() {
	It("should read and write in single unit", func() {
		storage := memory.NewStorage(4096)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, _ := storage.Read(0, 2)
		Expect(res).To(Equal([]byte{1, 2}))

		res, _ = storage.Read(1, 2)
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across units", func() {
		storage := memory.NewStorage(8192)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(4094, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
		Expect(storage.AllocatedUnits()).To(Equal(2))
	})

	It("should read zeros from untouched units without allocating", func() {
		storage := memory.NewStorage(1 * mem.MB)

		res, err := storage.Read(0x8000, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{0, 0, 0, 0}))
		Expect(storage.AllocatedUnits()).To(Equal(0))
	})

	It("should return error if accessing over the capacity", func() {
		storage := memory.NewStorage(4096)

		err := storage.Write(4096, []byte{1})
		Expect(err).To(MatchError(mem.ErrOutOfRange))

		_, err = storage.Read(4097, 1)
		Expect(err).To(MatchError(mem.ErrOutOfRange))
	})

	It("should reject an access that runs past the end", func() {
		storage := memory.NewStorage(4096)

		err := storage.Write(4094, []byte{1, 2, 3, 4})

		Expect(err).To(MatchError(mem.ErrOutOfRange))
		Expect(storage.AllocatedUnits()).To(Equal(0))
	})

	It("should allow the last byte", func() {
		storage := memory.NewStorage(4096)

		Expect(storage.Write(4095, []byte{0x5a})).To(Succeed())

		res, err := storage.Read(4095, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{0x5a}))
	})

	It("should not tear words under concurrent writes", func() {
		storage := memory.NewStorageWithUnitSize(64, 2)
		patterns := [][]byte{
			{0x11, 0x11, 0x11, 0x11},
			{0x22, 0x22, 0x22, 0x22},
		}

		var wg sync.WaitGroup
		for _, p := range patterns {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 1000 {
					_ = storage.Write(1, p)
				}
			}()
		}

		for range 1000 {
			res, err := storage.Read(1, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(res[1]).To(Equal(res[0]))
			Expect(res[2]).To(Equal(res[0]))
			Expect(res[3]).To(Equal(res[0]))
		}

		wg.Wait()
	})
})
