package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/memmodel/lane"
	"github.com/sarchlab/memmodel/mem"
)

var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the word, half-word, and byte access checks on the default node.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := cfg.buildModel()
		if err != nil {
			return err
		}

		acc := lane.NewAccessor(m.engine, m.engine.DefaultNode())

		code := runSelfTest(acc, m.engine.Endianness(), cmd.OutOrStdout())
		if code != 0 {
			atexit.Exit(code)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(selfTestCmd)
}

const (
	selfTestAddr1 = uint32(0x00001000)
	selfTestAddr2 = uint32(0x20000000)
	selfTestData1 = uint32(0x12345678)
	selfTestData2 = uint32(0xcafef00d)
	selfTestData3 = uint32(0x00001964)
	selfTestData4 = uint32(0x000000aa)
	selfTestData5 = uint32(0x000000ff)
	selfTestData6 = uint32(0x00000055)
	selfTestData7 = uint32(0x000000ee)
)

// Error bits reported by the self test.
const (
	selfTestWordErr = 1 << iota
	selfTestByteErr
	selfTestHalfErr
	selfTestHalfWriteErr
	selfTestByte3WriteErr
	selfTestByte2WriteErr
	selfTestByte1WriteErr
	selfTestByte0WriteErr
)

// runSelfTest writes two words, reads them back in every width, then
// overwrites a half-word and then every byte of the second word. The expected values follow the layout
// the configured endianness gives the stored words. It returns the error
// bits of the failed checks.
func runSelfTest(acc *lane.Accessor, endian mem.Endianness, out io.Writer) int {
	order := endian.ByteOrder()
	code := 0

	check := func(bit int, expected, got uint32, err error, what string) {
		switch {
		case err != nil:
			code |= bit
			fmt.Fprintf(out, "**Error: %s: %v\n", what, err)
		case got != expected:
			code |= bit
			fmt.Fprintf(out, "**Error: bad read. Expected 0x%08x, got 0x%08x\n",
				expected, got)
		default:
			fmt.Fprintf(out, "Read %s 0x%08x\n", what, got)
		}
	}

	var image1, image2 [4]byte
	order.PutUint32(image1[:], selfTestData1)
	order.PutUint32(image2[:], selfTestData2)

	must := func(bit int, err error) {
		if err != nil {
			code |= bit
			fmt.Fprintf(out, "**Error: write failed: %v\n", err)
		}
	}

	must(selfTestWordErr, acc.StoreWord(selfTestAddr1, selfTestData1))
	must(selfTestWordErr, acc.StoreWord(selfTestAddr2, selfTestData2))

	w, err := acc.LoadWord(selfTestAddr1)
	check(selfTestWordErr, selfTestData1, w, err, "word")

	for idx := range uint32(4) {
		b, err := acc.LoadByte(selfTestAddr2 + idx)
		check(selfTestByteErr, uint32(image2[idx]), uint32(b), err, "byte")
	}

	for idx := uint32(0); idx < 4; idx += 2 {
		hw, err := acc.LoadHalf(selfTestAddr1 + idx)
		expected := uint32(order.Uint16(image1[idx : idx+2]))
		check(selfTestHalfErr, expected, uint32(hw), err, "half-word")
	}

	must(selfTestHalfWriteErr,
		acc.StoreHalf(selfTestAddr1+2, uint16(selfTestData3)))
	order.PutUint16(image1[2:], uint16(selfTestData3))

	w, err = acc.LoadWord(selfTestAddr1)
	check(selfTestHalfWriteErr, order.Uint32(image1[:]), w, err, "word")

	byteWrites := []struct {
		bit    int
		offset uint32
		data   uint32
	}{
		{selfTestByte3WriteErr, 3, selfTestData4},
		{selfTestByte2WriteErr, 2, selfTestData5},
		{selfTestByte1WriteErr, 1, selfTestData6},
		{selfTestByte0WriteErr, 0, selfTestData7},
	}

	for _, bw := range byteWrites {
		must(bw.bit, acc.StoreByte(selfTestAddr2+bw.offset, uint8(bw.data)))
		image2[bw.offset] = uint8(bw.data)

		w, err = acc.LoadWord(selfTestAddr2)
		check(bw.bit, order.Uint32(image2[:]), w, err, "word")
	}

	if code != 0 {
		fmt.Fprintf(out, "\n***FAIL***: exit code %d\n\n", code)
	} else {
		fmt.Fprintf(out, "\nPASS\n\n")
	}

	return code
}
