// handlers_elements.go - Element state and control panel handlers
package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/workspace"
)

// ElementHandlerImpl implements the ElementHandler interface
type ElementHandlerImpl struct {
	batches BatchManager
}

// NewElementHandler creates a new element handler instance
func NewElementHandler(batches BatchManager) ElementHandler {
	return &ElementHandlerImpl{batches: batches}
}

func elementType(c echo.Context) (models.ElementType, error) {
	t := c.Param("type")
	if t == "" {
		return "", NewValidationError("type")
	}
	return models.ElementType(t), nil
}

func axisParam(c echo.Context) (workspace.Axis, error) {
	switch axis := workspace.Axis(c.QueryParam("axis")); axis {
	case workspace.AxisX, workspace.AxisY:
		return axis, nil
	default:
		return "", NewValidationError("axis")
	}
}

// HandleGetElements returns every element state as JSON
func (h *ElementHandlerImpl) HandleGetElements(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	views, err := b.Elements(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, views)
}

// HandleGetElementsMsgpack returns every element state as MessagePack
func (h *ElementHandlerImpl) HandleGetElementsMsgpack(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	views, err := b.Elements(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"batchId":  b.ID,
		"elements": views,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandlePatchElement merges a partial state into an element type
func (h *ElementHandlerImpl) HandlePatchElement(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	t, err := elementType(c)
	if err != nil {
		return err
	}
	// Decoded directly so path params are not bound into the map.
	var fields map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	patch := element.PatchFromFields(fields)
	if patch.IsEmpty() {
		return NewValidationError("state")
	}

	view, err := b.UpdateElement(c.Request().Context(), t, patch)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleSelectElement makes a type the control panel selection
func (h *ElementHandlerImpl) HandleSelectElement(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	t, err := elementType(c)
	if err != nil {
		return err
	}
	view, err := b.Select(c.Request().Context(), t)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleCenterElement centers a type along ?axis=x|y
func (h *ElementHandlerImpl) HandleCenterElement(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	t, err := elementType(c)
	if err != nil {
		return err
	}
	axis, err := axisParam(c)
	if err != nil {
		return err
	}
	view, err := b.Center(c.Request().Context(), t, axis)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleLockElement toggles the lock of ?axis=x|y
func (h *ElementHandlerImpl) HandleLockElement(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	t, err := elementType(c)
	if err != nil {
		return err
	}
	axis, err := axisParam(c)
	if err != nil {
		return err
	}
	view, err := b.ToggleLock(c.Request().Context(), t, axis)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleTransformElement advances the text transform cycle
func (h *ElementHandlerImpl) HandleTransformElement(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	t, err := elementType(c)
	if err != nil {
		return err
	}
	view, err := b.CycleTransform(c.Request().Context(), t)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleGetPanel returns the control panel view of the selection
func (h *ElementHandlerImpl) HandleGetPanel(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	view, err := b.Panel(c.Request().Context())
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleApplyPreset merges a named preset onto the current states
func (h *ElementHandlerImpl) HandleApplyPreset(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	var req applyPresetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	views, err := b.ApplyPreset(c.Request().Context(), req.Name)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, views)
}

// HandleSavePreset captures the current states as a named preset
func (h *ElementHandlerImpl) HandleSavePreset(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}
	var req savePresetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	preset, err := b.SavePreset(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusCreated, preset.Summary())
}

type applyPresetRequest struct {
	Name string `json:"name"`
}

func (r *applyPresetRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	return nil
}

type savePresetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *savePresetRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	return nil
}
