// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tiling

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestSwizzleApplyInvolution(t *testing.T) {
	for _, sw := range []Swizzle{SwizzleNone, SwizzleBit9, SwizzleBit9Bit10} {
		for off := 0; off < TileSize; off++ {
			got := sw.Apply(sw.Apply(off))
			if got != off {
				t.Fatalf("%v: Apply(Apply(%#x)) = %#x, want identity", sw, off, got)
			}
		}
	}
}

func TestSwizzleApply(t *testing.T) {
	tests := []struct {
		sw   Swizzle
		off  int
		want int
	}{
		{SwizzleNone, 0x200, 0x200},
		// bit 9 set flips bit 6
		{SwizzleBit9, 0x200, 0x240},
		{SwizzleBit9, 0x240, 0x200},
		// bit 9 clear leaves bit 6 alone
		{SwizzleBit9, 0x040, 0x040},
		// bits 9 and 10 both set cancel out
		{SwizzleBit9Bit10, 0x600, 0x600},
		{SwizzleBit9Bit10, 0x400, 0x440},
		{SwizzleBit9Bit10, 0x200, 0x240},
	}
	for _, tt := range tests {
		if got := tt.sw.Apply(tt.off); got != tt.want {
			t.Errorf("%v.Apply(%#x) = %#x, want %#x", tt.sw, tt.off, got, tt.want)
		}
	}
}

func TestTiledOffset(t *testing.T) {
	tests := []struct {
		x, y, tilesPerRow int
		want              int
	}{
		{0, 0, 8, 0},
		// last byte of the first strip row
		{15, 0, 8, 15},
		// second strip starts 512 bytes in
		{16, 0, 8, 512},
		// second row of the first strip
		{0, 1, 8, 16},
		// second tile in the row
		{128, 0, 8, 4096},
		// second tile row
		{0, 32, 8, 8 * 4096},
		// all components at once
		{128 + 16 + 3, 32 + 1, 8, 8*4096 + 4096 + 512 + 16 + 3},
	}
	for _, tt := range tests {
		if got := tiledOffset(tt.x, tt.y, tt.tilesPerRow, SwizzleNone); got != tt.want {
			t.Errorf("tiledOffset(%d, %d, %d) = %d, want %d", tt.x, tt.y, tt.tilesPerRow, got, tt.want)
		}
	}
}

func TestTilesPerRow(t *testing.T) {
	tests := []struct {
		width, want int
	}{
		{1, 1},
		{128, 1},
		{129, 2},
		{1920, 15},
		{1921, 16},
	}
	for _, tt := range tests {
		if got := TilesPerRow(tt.width); got != tt.want {
			t.Errorf("TilesPerRow(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	geometries := []struct {
		width, height, pitch int
	}{
		{128, 32, 128},
		{256, 64, 256},
		{1920, 1080, 2048},
		// width not a tile multiple
		{100, 40, 112},
		// chroma-style half-height plane
		{1920, 540, 1920},
	}
	swizzles := []Swizzle{SwizzleNone, SwizzleBit9, SwizzleBit9Bit10}

	for _, g := range geometries {
		src := make([]byte, g.height*g.pitch)
		rng.Read(src)

		for _, sw := range swizzles {
			tpr := TilesPerRow(g.width)
			tiled := make([]byte, TiledSize(g.height, tpr))
			LinearToTiled(tiled, src, g.width, g.height, g.pitch, tpr, sw)

			back := make([]byte, g.height*g.pitch)
			TiledToLinear(back, tiled, g.width, g.height, g.pitch, tpr, sw)

			for y := 0; y < g.height; y++ {
				want := src[y*g.pitch : y*g.pitch+g.width]
				got := back[y*g.pitch : y*g.pitch+g.width]
				if !bytes.Equal(got, want) {
					t.Fatalf("%dx%d pitch=%d sw=%v: row %d differs after round trip",
						g.width, g.height, g.pitch, sw, y)
				}
			}
		}
	}
}

func TestSwizzleChangesLayout(t *testing.T) {
	src := make([]byte, 128*32)
	for i := range src {
		src[i] = byte(i)
	}
	plain := make([]byte, TileSize)
	scrambled := make([]byte, TileSize)
	LinearToTiled(plain, src, 128, 32, 128, 1, SwizzleNone)
	LinearToTiled(scrambled, src, 128, 32, 128, 1, SwizzleBit9)
	if bytes.Equal(plain, scrambled) {
		t.Fatal("SwizzleBit9 produced the same layout as SwizzleNone")
	}
}

func TestCopyPlane(t *testing.T) {
	src := make([]byte, 4*10)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, 4*16)
	CopyPlane(dst, src, 10, 4, 16, 10)
	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			if dst[y*16+x] != src[y*10+x] {
				t.Fatalf("byte (%d,%d) not copied", x, y)
			}
		}
	}
}

func BenchmarkLinearToTiled1080p(b *testing.B) {
	const width, height, pitch = 1920, 1080, 2048
	src := make([]byte, height*pitch)
	tpr := TilesPerRow(width)
	dst := make([]byte, TiledSize(height, tpr))
	b.SetBytes(int64(width * height))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		LinearToTiled(dst, src, width, height, pitch, tpr, SwizzleNone)
	}
}

func BenchmarkLinearToTiledSwizzled1080p(b *testing.B) {
	const width, height, pitch = 1920, 1080, 2048
	src := make([]byte, height*pitch)
	tpr := TilesPerRow(width)
	dst := make([]byte, TiledSize(height, tpr))
	b.SetBytes(int64(width * height))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		LinearToTiled(dst, src, width, height, pitch, tpr, SwizzleBit9)
	}
}
