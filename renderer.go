package pdftakeoff

import (
	"image"
	"io"
	"math"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Renderer opens PDF documents for rasterization with a pdfium instance.
// Zoom 1.0 renders one pixel per PDF point.
type Renderer struct {
	instance pdfium.Pdfium
}

// NewRenderer creates a renderer on top of a pdfium instance.
func NewRenderer(instance pdfium.Pdfium) *Renderer {
	return &Renderer{instance: instance}
}

// OpenFile opens a PDF file.
func (r *Renderer) OpenFile(filePath string) (*Document, error) {
	return r.open(&requests.OpenDocument{
		FilePath: &filePath,
	})
}

// OpenBytes opens a PDF held in memory.
func (r *Renderer) OpenBytes(pdfBytes []byte) (*Document, error) {
	return r.open(&requests.OpenDocument{
		File: &pdfBytes,
	})
}

// OpenReader opens a PDF from an io.ReadSeeker.
func (r *Renderer) OpenReader(reader io.ReadSeeker) (*Document, error) {
	return r.open(&requests.OpenDocument{
		FileReader: reader,
	})
}

func (r *Renderer) open(req *requests.OpenDocument) (*Document, error) {
	doc, err := r.instance.OpenDocument(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PDF document")
	}

	pageCount, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
			Document: doc.Document,
		})
		return nil, errors.Wrap(err, "failed to get page count")
	}

	return &Document{
		instance:  r.instance,
		doc:       doc.Document,
		pageCount: pageCount.PageCount,
	}, nil
}

// Document is an open PDF. It implements PageRasterizer and serializes
// access to the underlying pdfium instance.
type Document struct {
	mu        sync.Mutex
	instance  pdfium.Pdfium
	doc       references.FPDF_DOCUMENT
	pageCount int
	closed    bool
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pageCount
}

// PageSize returns the size of a page in PDF points.
func (d *Document) PageSize(pageNumber int) (width, height float64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	page, err := d.loadPage(pageNumber)
	if err != nil {
		return 0, 0, err
	}
	defer d.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: page,
	})
	return d.pageSize(page)
}

// RenderPage rasterizes a 1-based page at the given zoom.
func (d *Document) RenderPage(pageNumber int, zoom float64) (*Raster, error) {
	zoom = effectiveZoom(zoom, "render request")
	start := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	page, err := d.loadPage(pageNumber)
	if err != nil {
		return nil, err
	}
	defer d.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: page,
	})

	width, height, err := d.pageSize(page)
	if err != nil {
		return nil, err
	}
	w := max(1, int(math.Round(width*zoom)))
	h := max(1, int(math.Round(height*zoom)))

	rendered, err := d.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page: requests.Page{
			ByReference: &page,
		},
		Width:  w,
		Height: h,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render page %d", pageNumber)
	}
	defer rendered.Cleanup()

	// The rendered buffer is owned by pdfium and released by Cleanup, so it
	// is flattened onto a white sheet before returning.
	src := rendered.Result.Image
	img := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Over)

	logger.Debugf("rendered page %d at zoom %.2f (%dx%d) in %v", pageNumber, zoom, w, h, time.Since(start))

	return &Raster{
		Image:  img,
		Page:   pageNumber,
		Zoom:   zoom,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// Close releases the document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.doc,
	})
	return errors.Wrap(err, "failed to close PDF document")
}

func (d *Document) loadPage(pageNumber int) (references.FPDF_PAGE, error) {
	if d.closed {
		return "", errors.New("document is closed")
	}
	if pageNumber < 1 || pageNumber > d.pageCount {
		return "", errors.Errorf("page %d out of range (document has %d pages)", pageNumber, d.pageCount)
	}

	pageResp, err := d.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: d.doc,
		Index:    pageNumber - 1,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to load page %d", pageNumber)
	}
	return pageResp.Page, nil
}

func (d *Document) pageSize(page references.FPDF_PAGE) (float64, float64, error) {
	pageWidth, err := d.instance.FPDF_GetPageWidthF(&requests.FPDF_GetPageWidthF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get page width")
	}

	pageHeight, err := d.instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get page height")
	}

	return float64(pageWidth.PageWidth), float64(pageHeight.PageHeight), nil
}
