// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package dump writes decoded frames to disk for offline inspection.
// Raw NV12 planes compress extremely well for synthetic content, so
// frames are stored zstd-compressed; Preview converts a frame to an
// RGBA image for quick eyeballing.
package dump

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/draw"
)

// Writer dumps decoded NV12 frames into a directory, one file per
// frame, zstd-compressed. It is driven from the submission thread only
// and is not safe for concurrent use.
type Writer struct {
	dir     string
	enc     *zstd.Encoder
	frame   int
	scratch []byte
}

// NewWriter creates the dump directory if needed and returns a writer.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	return &Writer{dir: dir, enc: enc}, nil
}

// WriteFrame stores one NV12 frame. The planes are repacked to their
// tight pitch before compression so dumps are comparable across
// drivers with different alignment.
func (w *Writer) WriteFrame(y, uv []byte, width, height, yPitch, uvPitch int) error {
	need := width*height + width*height/2
	if cap(w.scratch) < need {
		w.scratch = make([]byte, need)
	}
	packed := w.scratch[:0]
	for row := 0; row < height; row++ {
		packed = append(packed, y[row*yPitch:row*yPitch+width]...)
	}
	for row := 0; row < height/2; row++ {
		packed = append(packed, uv[row*uvPitch:row*uvPitch+width]...)
	}
	w.scratch = packed

	name := filepath.Join(w.dir, fmt.Sprintf("frame-%05d-%dx%d.nv12.zst", w.frame, width, height))
	w.frame++
	return os.WriteFile(name, w.enc.EncodeAll(packed, nil), 0o644)
}

// Close releases the compressor.
func (w *Writer) Close() error {
	w.enc.Close()
	return nil
}

// Preview builds a YCbCr image from NV12 planes, deinterleaving the
// chroma plane.
func Preview(y, uv []byte, width, height, yPitch, uvPitch int) *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	for row := 0; row < height; row++ {
		copy(img.Y[row*img.YStride:row*img.YStride+width], y[row*yPitch:])
	}
	for row := 0; row < height/2; row++ {
		src := uv[row*uvPitch:]
		for col := 0; col < width/2; col++ {
			img.Cb[row*img.CStride+col] = src[2*col]
			img.Cr[row*img.CStride+col] = src[2*col+1]
		}
	}
	return img
}

// PreviewRGBA converts a frame to RGBA, downscaling so the longer side
// does not exceed maxDim. maxDim <= 0 keeps the full resolution.
func PreviewRGBA(y, uv []byte, width, height, yPitch, uvPitch, maxDim int) *image.RGBA {
	src := Preview(y, uv, width, height, yPitch, uvPitch)

	outW, outH := width, height
	if maxDim > 0 && (width > maxDim || height > maxDim) {
		if width >= height {
			outW = maxDim
			outH = height * maxDim / width
		} else {
			outH = maxDim
			outW = width * maxDim / height
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	if outW == width && outH == height {
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return dst
}
