// Command slicescan prints the slice layout of a raw Annex-B H.264
// elementary stream: one line per kept slice NAL, sorted the way the
// decode bridge would submit them.
//
// Slice headers depend on the active parameter sets; the relevant
// fields are supplied as flags instead of parsing SPS/PPS NALs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gogpu/hwdec/bitstream"
)

func main() {
	var (
		frameNumBits = flag.Int("framenum-bits", 4, "bits in frame_num (log2_max_frame_num)")
		pocType      = flag.Int("poc-type", 0, "pic_order_cnt_type (0, 1 or 2)")
		pocLsbBits   = flag.Int("poc-lsb-bits", 4, "bits in pic_order_cnt_lsb (type 0)")
		fieldCoding  = flag.Bool("fields", false, "stream uses field coding (frame_mbs_only_flag = 0)")
		pocPresent   = flag.Bool("poc-present", false, "bottom_field_pic_order_in_frame_present_flag")
		redundant    = flag.Bool("redundant", false, "redundant_pic_cnt_present_flag")
		refIdxL0     = flag.Int("ref-idx-l0", 1, "num_ref_idx_l0_default_active")
		refIdxL1     = flag.Int("ref-idx-l1", 1, "num_ref_idx_l1_default_active")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: slicescan [flags] <stream.h264>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	buf, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("read stream: %v", err)
	}

	hdr := bitstream.HeaderContext{
		FrameNumBits:           *frameNumBits,
		FrameMbsOnly:           !*fieldCoding,
		PicOrderCntType:        *pocType,
		PicOrderCntLsbBits:     *pocLsbBits,
		PicOrderPresent:        *pocPresent,
		RedundantPicCntPresent: *redundant,
		DefaultRefIdxL0:        *refIdxL0,
		DefaultRefIdxL1:        *refIdxL1,
	}

	slices, err := bitstream.Collect(buf, hdr)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}

	fmt.Printf("%d slices in %d bytes\n", len(slices), len(buf))
	fmt.Printf("%8s %6s %5s %10s %8s %6s %6s\n",
		"first_mb", "type", "nal", "offset", "size", "l0", "l1")
	for _, s := range slices {
		fmt.Printf("%8d %6s %5d %10d %8d %6d %6d\n",
			s.FirstMB, sliceTypeName(s.Type), s.NALType, s.Offset, s.Size,
			s.RefIdxL0, s.RefIdxL1)
	}
}

func sliceTypeName(t uint32) string {
	switch t {
	case bitstream.SliceTypeP:
		return "P"
	case bitstream.SliceTypeB:
		return "B"
	case bitstream.SliceTypeI:
		return "I"
	case bitstream.SliceTypeSP:
		return "SP"
	case bitstream.SliceTypeSI:
		return "SI"
	}
	return fmt.Sprintf("?%d", t)
}
