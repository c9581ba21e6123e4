package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// minimalPDF builds a well-formed PDF whose page tree reports count pages.
func minimalPDF(count int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [3 0 R] /Count %d >>", count),
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] >>",
	}
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewGray(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data []byte
		want Format
		err  error
	}{
		{"plan.bin", encodePNG(t, 2, 2), PNG, nil},
		{"plan.png", jpg.Bytes(), JPEG, nil},
		{"plan", []byte("GIF89a...."), GIF, nil},
		{"x", []byte("II*\x00rest"), TIFF, nil},
		{"x", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), WebP, nil},
		{"scan.dat", minimalPDF(1), PDF, nil},
		{"plan.webp", []byte("garbage"), WebP, nil},
		{"notes.txt", []byte("hello"), "", ErrUnsupported},
		{"noext", []byte("hello"), "", ErrUnsupported},
	}
	for _, tc := range tests {
		got, err := Sniff(tc.name, tc.data)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%s: err %v, want %v", tc.name, err, tc.err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%s: got %q %v, want %q", tc.name, got, err, tc.want)
		}
	}
}

func TestDecodeImage(t *testing.T) {
	data := encodePNG(t, 2000, 1600)
	doc, err := Decode("store.png", data, Options{Log: quiet()})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Format != PNG || doc.Pages != 1 {
		t.Fatalf("format %q pages %d", doc.Format, doc.Pages)
	}
	info := doc.Info()
	want := struct{ W, H, DW, DH int }{2000, 1600, 1000, 800}
	got := struct{ W, H, DW, DH int }{info.Width, info.Height, info.DisplayWidth, info.DisplayHeight}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dimensions mismatch (-want +got):\n%s", diff)
	}
	if info.Name != "store.png" || info.Size != int64(len(data)) {
		t.Fatalf("identity %q/%d", info.Name, info.Size)
	}
	if doc.Base.RGBAAt(0, 0).R != 255 {
		t.Fatal("base image lost its pixels")
	}
}

func TestDecodeSmallImageKeepsSize(t *testing.T) {
	doc, err := Decode("small.png", encodePNG(t, 300, 200), Options{Log: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Display.Bounds().Size(); got != image.Pt(300, 200) {
		t.Fatalf("display %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		opts Options
		want error
	}{
		{"empty.png", nil, Options{}, ErrCorrupt},
		{"broken.png", []byte("\x89PNG\r\n\x1a\nnot really"), Options{}, ErrCorrupt},
		{"readme.md", []byte("# plan"), Options{}, ErrUnsupported},
		{"huge.png", encodePNG(t, 100, 100), Options{MaxPixels: 50}, ErrTooLarge},
		{"broken.pdf", []byte("%PDF-1.4\ntruncated"), Options{}, ErrCorrupt},
	}
	for _, tc := range tests {
		tc.opts.Log = quiet()
		_, err := Decode(tc.name, tc.data, tc.opts)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestPageCount(t *testing.T) {
	for _, n := range []int{1, 3} {
		got, err := PageCount(minimalPDF(n))
		if err != nil {
			t.Fatalf("page count: %v", err)
		}
		if got != n {
			t.Fatalf("got %d pages, want %d", got, n)
		}
	}
}

func TestDecodePDFUsesFirstPageAtScale(t *testing.T) {
	var gotPage int
	var gotDPI float64
	raster := RasterizerFunc(func(data []byte, page int, dpi float64) (image.Image, error) {
		gotPage, gotDPI = page, dpi
		return image.NewRGBA(image.Rect(0, 0, 300, 150)), nil
	})
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	doc, err := Decode("plan.pdf", minimalPDF(2), Options{Rasterizer: raster, Log: log})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotPage != 0 || gotDPI != 108 {
		t.Fatalf("rasterized page %d at %v dpi", gotPage, gotDPI)
	}
	if doc.Format != PDF || doc.Pages != 2 {
		t.Fatalf("format %q pages %d", doc.Format, doc.Pages)
	}
	if doc.Base.Bounds().Size() != image.Pt(300, 150) {
		t.Fatalf("base %v", doc.Base.Bounds())
	}
	if !strings.Contains(logs.String(), "several pages") {
		t.Fatalf("expected multi-page warning, got %q", logs.String())
	}
}

func TestDecodePDFRasterizerFailure(t *testing.T) {
	raster := Fallback{
		RasterizerFunc(func([]byte, int, float64) (image.Image, error) { return nil, errors.New("no mupdf") }),
		RasterizerFunc(func([]byte, int, float64) (image.Image, error) { return nil, errors.New("no poppler") }),
	}
	_, err := Decode("plan.pdf", minimalPDF(1), Options{Rasterizer: raster, Log: quiet()})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err %v, want ErrCorrupt", err)
	}
	if !strings.Contains(err.Error(), "no poppler") {
		t.Fatalf("fallback errors not joined: %v", err)
	}
}

func TestReadFileAndBaseName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "門市平面圖.png")
	if err := os.WriteFile(path, encodePNG(t, 10, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ReadFile(path, Options{Log: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "門市平面圖.png" || doc.BaseName() != "門市平面圖" {
		t.Fatalf("name %q base %q", doc.Name, doc.BaseName())
	}
	if got := BaseName(`C:\plans\store.v2.pdf`); got != "store.v2" {
		t.Fatalf("BaseName = %q", got)
	}
}

func TestDecodeFlattensTransparency(t *testing.T) {
	doc, err := Decode("plan.png", encodePNG(t, 4, 4), Options{Log: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Base.RGBAAt(3, 3); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("transparent pixel became %+v, want white", got)
	}
}

func TestKeyMatchesDecodedDocument(t *testing.T) {
	data := encodePNG(t, 4, 3)
	doc, err := Decode("plan.png", data, Options{Log: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Key("plan.png", int64(len(data))), doc.Key(); got != want {
		t.Fatalf("Key = %q, decoded document key %q", got, want)
	}
}
