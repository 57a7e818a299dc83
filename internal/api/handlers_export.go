// handlers_export.go - PDF export job handlers
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/jobs"
	"github.com/certstudio/backend/internal/storage"
)

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	batches  BatchManager
	jobs     *jobs.Manager
	exporter *export.Exporter
	store    storage.Store
}

// NewExportHandler creates a new export handler instance
func NewExportHandler(batches BatchManager, jobMgr *jobs.Manager, exporter *export.Exporter, store storage.Store) ExportHandler {
	return &ExportHandlerImpl{
		batches:  batches,
		jobs:     jobMgr,
		exporter: exporter,
		store:    store,
	}
}

// HandleStartExport snapshots the batch and starts a PDF export job
func (h *ExportHandlerImpl) HandleStartExport(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	doc, err := b.ExportDocument(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	if _, err := export.InspectBackground(doc.Background); err != nil {
		return FromDomainError(err)
	}

	fileName := fmt.Sprintf("certificates-%s.pdf", time.Now().Format("20060102-150405"))
	job := h.jobs.StartJob(b.ID, fileName, func(ctx context.Context, w io.Writer, progress func(done, total int)) error {
		return h.exporter.Export(ctx, doc, w, progress)
	})

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"jobId":      job.ID,
		"status":     job.Status,
		"pagesTotal": doc.DataPages(),
	})
}

// HandleGetExport returns the job status
func (h *ExportHandlerImpl) HandleGetExport(c echo.Context) error {
	id := c.Param("jobId")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("export job", id)
	}
	return c.JSON(http.StatusOK, job)
}

// HandleExportProgressStream streams job status as Server-Sent Events
func (h *ExportHandlerImpl) HandleExportProgressStream(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	job, ok := h.jobs.GetJob(id)
	if !ok {
		sendSSEError(c, "export job not found")
		return nil
	}
	sendSSEData(c, job)
	if job.Status.Done() {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(10 * time.Minute)
	defer timeout.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ticker.C:
			job, ok := h.jobs.GetJob(id)
			if !ok {
				sendSSEError(c, "export job not found")
				return nil
			}
			sendSSEData(c, job)
			if job.Status.Done() {
				return nil
			}

		case <-timeout.C:
			sendSSEError(c, "timeout waiting for export")
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// HandleDownloadExport serves the finished PDF
func (h *ExportHandlerImpl) HandleDownloadExport(c echo.Context) error {
	id := c.Param("jobId")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("export job", id)
	}
	if job.Status != jobs.StatusComplete || job.FileInfo == nil {
		return NewConflictError(fmt.Sprintf("export job %s is %s", id, job.Status))
	}

	data, err := h.store.ReadAll(job.FileInfo.ID)
	if err != nil {
		return FromDomainError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", job.FileName))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// HandleDeleteExport cancels a job and removes its PDF
func (h *ExportHandlerImpl) HandleDeleteExport(c echo.Context) error {
	id := c.Param("jobId")
	if err := h.jobs.Remove(id); err != nil {
		return FromDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func sendSSEError(c echo.Context, message string) {
	sendSSEData(c, map[string]string{"error": message})
}
