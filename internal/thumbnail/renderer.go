package thumbnail

import (
    "bytes"
    "encoding/base64"
    "fmt"
    "image"
    "image/draw"
    "image/jpeg"

    "github.com/gen2brain/go-fitz"
    "github.com/rs/zerolog/log"
)

// Options controls preview rendering.
type Options struct {
    DPI       int
    Quality   int
    Grayscale bool
}

// DefaultOptions renders small grid previews.
func DefaultOptions() Options {
    return Options{DPI: 72, Quality: 80}
}

// RenderDataURI renders one page (1-based) of an in-memory PDF as a JPEG
// data URI for the page grid. This is a view concern only; the assembly
// pipeline never renders.
func RenderDataURI(pdfBytes []byte, pageNum int, opts Options) (string, error) {
    if opts.DPI <= 0 { opts.DPI = 72 }
    if opts.Quality <= 0 { opts.Quality = 80 }

    doc, err := fitz.NewFromMemory(pdfBytes)
    if err != nil {
        return "", fmt.Errorf("failed to open PDF: %w", err)
    }
    defer doc.Close()

    if pageNum < 1 || pageNum > doc.NumPage() {
        return "", fmt.Errorf("page %d out of range (1..%d)", pageNum, doc.NumPage())
    }

    // go-fitz uses 0-based indexing
    img, err := doc.ImageDPI(pageNum-1, float64(opts.DPI))
    if err != nil {
        return "", fmt.Errorf("failed to render page %d: %w", pageNum, err)
    }

    var finalImg image.Image = img
    if opts.Grayscale {
        bounds := img.Bounds()
        grayImg := image.NewGray(bounds)
        draw.Draw(grayImg, bounds, img, image.Point{}, draw.Src)
        finalImg = grayImg
    }

    var buf bytes.Buffer
    if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: opts.Quality}); err != nil {
        return "", fmt.Errorf("failed to encode JPEG: %w", err)
    }

    log.Debug().
        Int("page", pageNum).
        Int("dpi", opts.DPI).
        Int("jpeg_size", buf.Len()).
        Msg("rendered page thumbnail")

    return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
