package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"gridhost/internal/engine"
	"gridhost/internal/export"
	"gridhost/internal/models"
)

const (
	arrowStreamMIME = "application/vnd.apache.arrow.stream"
	headerETag      = "ETag"
)

type Options struct {
	// Rows and Shuffle are used by reload when the request leaves them out.
	Rows      int
	Shuffle   bool
	PageLimit int
	Logger    *slog.Logger
}

type Handler struct {
	grid    *engine.Grid
	opts    Options
	exports singleflight.Group
	log     *slog.Logger
}

func NewHandler(grid *engine.Grid, opts Options) *Handler {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 100
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{grid: grid, opts: opts, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/grid", h.GetGrid)
	api.DELETE("/grid", h.ClearGrid)
	api.POST("/reload", h.Reload)
	api.GET("/columns", h.GetColumns)
	api.POST("/columns", h.AddColumn)
	api.GET("/rows/:index", h.GetRow)
	api.GET("/coverage", h.GetCoverage)
	api.GET("/export.arrow", h.ExportArrow)
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func summarize(s engine.Snapshot) models.ChangeSummary {
	return models.ChangeSummary{
		Snapshot:   s.ID.String(),
		Generation: s.Generation,
		State:      s.State,
		Rows:       len(s.Rows),
		Columns:    s.Columns,
	}
}

// GetGrid returns the columns and a page of rows, one cell per column.
func (h *Handler) GetGrid(c echo.Context) error {
	limit, offset := getPaginationParams(c, h.opts.PageLimit)

	var view models.GridView
	h.grid.View(func(s engine.Snapshot) {
		total := len(s.Rows)
		view = models.GridView{
			Snapshot:   s.ID.String(),
			Generation: s.Generation,
			State:      s.State,
			Columns:    s.Columns,
			Rows:       []models.RowView{},
			Total:      total,
			Limit:      limit,
			Offset:     offset,
		}
		if offset >= total {
			return
		}
		end := offset + limit
		if end > total {
			end = total
		}
		for _, r := range s.Rows[offset:end] {
			view.Rows = append(view.Rows, s.RowView(r))
		}
	})

	c.Response().Header().Set(headerETag, strconv.Quote(view.Snapshot))
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetColumns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.grid.Columns())
}

func (h *Handler) GetRow(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, errors.New("row index must be an integer"))
	}

	var (
		view  models.RowView
		found bool
	)
	h.grid.View(func(s engine.Snapshot) {
		var r *models.Row
		if r, found = s.FindRow(index); found {
			view = s.RowView(r)
		}
	})
	if !found {
		return errorJSON(c, http.StatusNotFound, errors.New("row not found"))
	}
	return c.JSON(http.StatusOK, view)
}

// Reload clears the grid and loads a fresh row set.
func (h *Handler) Reload(c echo.Context) error {
	var req models.ReloadRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	opts := engine.LoadOptions{RowCount: h.opts.Rows, Shuffle: h.opts.Shuffle}
	if req.Rows != nil {
		opts.RowCount = *req.Rows
	}
	if req.Shuffle != nil {
		opts.Shuffle = *req.Shuffle
	}

	h.grid.Clear()
	snap, err := h.grid.Load(opts)
	summary := summarize(snap)
	if err != nil {
		if !errors.Is(err, engine.ErrInvalidRowCount) {
			return errorJSON(c, http.StatusInternalServerError, err)
		}
		summary.Warning = err.Error()
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) ClearGrid(c echo.Context) error {
	return c.JSON(http.StatusOK, summarize(h.grid.Clear()))
}

// AddColumn appends a column; an empty key asks for a generated one.
func (h *Handler) AddColumn(c echo.Context) error {
	var req models.AddColumnRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	snap, err := h.grid.AddColumn(req.Key)
	switch {
	case errors.Is(err, engine.ErrDuplicateKey):
		return errorJSON(c, http.StatusConflict, err)
	case errors.Is(err, engine.ErrEmptyKey):
		return errorJSON(c, http.StatusBadRequest, err)
	case err != nil:
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, summarize(snap))
}

func (h *Handler) GetCoverage(c echo.Context) error {
	var report models.CoverageReport
	h.grid.View(func(s engine.Snapshot) {
		report = s.Coverage()
	})
	return c.JSON(http.StatusOK, report)
}

// ExportArrow streams the current snapshot as Arrow IPC. Concurrent requests
// for the same snapshot share one encoding.
func (h *Handler) ExportArrow(c echo.Context) error {
	id := h.grid.Snapshot().ID.String()

	v, err, shared := h.exports.Do(id, func() (interface{}, error) {
		var (
			buf  bytes.Buffer
			werr error
		)
		h.grid.View(func(s engine.Snapshot) {
			werr = export.WriteIPC(&buf, nil, s)
		})
		return buf.Bytes(), werr
	})
	if err != nil {
		h.log.Error("arrow export failed", "snapshot", id, "error", err)
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	h.log.Debug("arrow export", "snapshot", id, "shared", shared)

	c.Response().Header().Set(headerETag, strconv.Quote(id))
	return c.Blob(http.StatusOK, arrowStreamMIME, v.([]byte))
}
