// handlers_batch.go - Batch lifecycle, data and background handlers
package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/parser"
	"github.com/certstudio/backend/internal/storage"
	"github.com/certstudio/backend/internal/workspace"
)

// DefaultMaxUploadBytes caps data and background uploads.
const DefaultMaxUploadBytes = 32 << 20

// BatchHandlerImpl implements the BatchHandler interface
type BatchHandlerImpl struct {
	batches        BatchManager
	store          storage.Store
	maxUploadBytes int64
}

// NewBatchHandler creates a new batch handler instance
func NewBatchHandler(batches BatchManager, store storage.Store, maxUploadBytes int64) BatchHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &BatchHandlerImpl{
		batches:        batches,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// lookupBatch resolves the :id path parameter.
func lookupBatch(c echo.Context, batches BatchManager) (*workspace.Batch, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	b, err := batches.Get(id)
	if err != nil {
		return nil, NewNotFoundError("batch", id)
	}
	return b, nil
}

// HandleCreateBatch starts an empty batch
func (h *BatchHandlerImpl) HandleCreateBatch(c echo.Context) error {
	b, err := h.batches.Create()
	if err != nil {
		return FromDomainError(err)
	}
	summary, err := b.Summary(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusCreated, summary)
}

// HandleListBatches lists the active batches
func (h *BatchHandlerImpl) HandleListBatches(c echo.Context) error {
	return c.JSON(http.StatusOK, h.batches.List(c.Request().Context()))
}

// HandleGetBatch returns a batch summary
func (h *BatchHandlerImpl) HandleGetBatch(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	summary, err := b.Summary(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// HandleDeleteBatch closes a batch
func (h *BatchHandlerImpl) HandleDeleteBatch(c echo.Context) error {
	id := c.Param("id")
	if err := h.batches.Delete(id); err != nil {
		return NewNotFoundError("batch", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleKeepAlive marks a batch as in use
func (h *BatchHandlerImpl) HandleKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if !h.batches.Touch(id) {
		return NewNotFoundError("batch", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandlePasteData parses tab-separated text pasted from a spreadsheet
func (h *BatchHandlerImpl) HandlePasteData(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	var req pasteDataRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	table, err := parser.ParseTSV(req.Text)
	if err != nil {
		return FromDomainError(err)
	}
	summary, err := b.SetData(c.Request().Context(), table)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// HandleUploadData imports a .tsv, .txt, .csv or .xlsx file (multipart/form-data)
func (h *BatchHandlerImpl) HandleUploadData(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	name, data, err := h.readFormFile(c)
	if err != nil {
		return err
	}

	table, err := parser.ImportTable(name, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return FromDomainError(err)
	}
	summary, err := b.SetData(c.Request().Context(), table)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// HandleUploadBackground stores and installs a PNG or JPEG background
func (h *BatchHandlerImpl) HandleUploadBackground(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	name, data, err := h.readFormFile(c)
	if err != nil {
		return err
	}

	format, err := export.DetectImageFormat(data)
	if err != nil {
		return NewUnprocessableError("background must be a PNG or JPEG image", err)
	}

	info, err := h.store.SaveBytes(name, "image/"+string(format), storage.StatusUploaded, data)
	if err != nil {
		return NewInternalError("failed to save background", err)
	}

	bg, err := b.SetBackground(c.Request().Context(), info.ID, data)
	if err != nil {
		if delErr := h.store.Delete(info.ID); delErr != nil {
			fmt.Printf("[API] Failed to remove rejected background %s: %v\n", info.ID, delErr)
		}
		return FromDomainError(err)
	}
	return c.JSON(http.StatusCreated, bg)
}

// HandleGetBackground serves the batch background image
func (h *BatchHandlerImpl) HandleGetBackground(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	summary, err := b.Summary(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	if summary.Background == nil {
		return NewNotFoundError("background", b.ID)
	}
	data, err := h.store.ReadAll(summary.Background.FileID)
	if err != nil {
		return FromDomainError(err)
	}
	return c.Blob(http.StatusOK, "image/"+summary.Background.Format, data)
}

// HandleGenerate detects element types and rebuilds the slides
func (h *BatchHandlerImpl) HandleGenerate(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	var req workspace.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	summary, err := b.Generate(c.Request().Context(), req)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *BatchHandlerImpl) readFormFile(c echo.Context) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, NewBadRequestError("no file provided", err)
	}
	if file.Size > h.maxUploadBytes {
		return "", nil, NewBadRequestError(fmt.Sprintf("file too large (limit %d bytes)", h.maxUploadBytes), nil)
	}
	src, err := file.Open()
	if err != nil {
		return "", nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return "", nil, NewInternalError("failed to read uploaded file", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return "", nil, NewBadRequestError(fmt.Sprintf("file too large (limit %d bytes)", h.maxUploadBytes), nil)
	}
	return file.Filename, data, nil
}

type pasteDataRequest struct {
	Text string `json:"text"`
}

func (r *pasteDataRequest) validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return NewValidationError("text")
	}
	return nil
}
