// handlers_slides.go - Slide projection and raster handlers
package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/coords"
)

// SlideHandlerImpl implements the SlideHandler interface
type SlideHandlerImpl struct {
	batches BatchManager
}

// NewSlideHandler creates a new slide handler instance
func NewSlideHandler(batches BatchManager) SlideHandler {
	return &SlideHandlerImpl{batches: batches}
}

func slideIndex(c echo.Context) (int, error) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		return 0, NewValidationError("index")
	}
	return idx, nil
}

// HandleGetSlides returns every slide with its instance layouts
func (h *SlideHandlerImpl) HandleGetSlides(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	slides, err := b.Slides(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, slides)
}

// HandleGetSlidePNG renders one slide to PNG
func (h *SlideHandlerImpl) HandleGetSlidePNG(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	idx, err := slideIndex(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := b.RenderSlide(c.Request().Context(), idx, &buf); err != nil {
		return FromDomainError(err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// HandleResizeSlide reports the live pixel size of a slide container
func (h *SlideHandlerImpl) HandleResizeSlide(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	idx, err := slideIndex(c)
	if err != nil {
		return err
	}
	var req resizeSlideRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	slide, err := b.ResizeSlide(c.Request().Context(), idx, coords.Size{Width: req.Width, Height: req.Height})
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, slide)
}

type resizeSlideRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// validate accepts a zero size, which marks the container as not ready.
func (r *resizeSlideRequest) validate() error {
	if r.Width < 0 {
		return NewValidationError("width")
	}
	if r.Height < 0 {
		return NewValidationError("height")
	}
	return nil
}
