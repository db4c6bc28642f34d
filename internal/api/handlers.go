package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/logger"
)

// ReloadFunc builds a fresh snapshot, typically from the dataset store.
type ReloadFunc func(ctx context.Context) (*cpi.Snapshot, error)

type Handler struct {
	svc    *cpi.Service
	reload ReloadFunc
}

// NewHandler serves queries from svc. The service may still be empty; until
// a snapshot is loaded every query answers 503. reload may be nil, in which
// case POST /api/reload is not registered.
func NewHandler(svc *cpi.Service, reload ReloadFunc) *Handler {
	return &Handler{svc: svc, reload: reload}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/index", h.GetIndex)
	api.GET("/inflate", h.GetInflate)
	api.GET("/series", h.GetSeries)
	api.GET("/areas", h.GetAreas)
	api.GET("/items", h.GetItems)
	api.GET("/status", h.GetStatus)
	if h.reload != nil {
		api.POST("/reload", h.PostReload)
	}
}

// --- RESPONSES ---

type indexResponse struct {
	SeriesID string  `json:"series_id"`
	Period   string  `json:"period"`
	Value    float64 `json:"value"`
}

type inflateResponse struct {
	SeriesID string  `json:"series_id"`
	Amount   float64 `json:"amount"`
	From     string  `json:"from"`
	To       string  `json:"to,omitempty"`
	Value    float64 `json:"value"`
	Decimal  string  `json:"decimal,omitempty"`
}

type statusResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	LoadedAt string `json:"loaded_at,omitempty"`
	Series   int    `json:"series"`
	Default  string `json:"default_series,omitempty"`
}

// --- HANDLERS ---

// filterParams reads the series filter shared by every query endpoint.
func filterParams(c echo.Context) cpi.Filter {
	return cpi.Filter{
		SeriesID:    c.QueryParam("series_id"),
		Survey:      c.QueryParam("survey"),
		Area:        c.QueryParam("area"),
		Item:        c.QueryParam("items"),
		Periodicity: c.QueryParam("periodicity"),
	}
}

func periodParam(c echo.Context, name string, required bool) (*cpi.Period, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		if required {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "missing query parameter "+name)
		}
		return nil, nil
	}
	p, err := cpi.ParsePeriod(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+": "+err.Error())
	}
	return &p, nil
}

func (h *Handler) GetIndex(c echo.Context) error {
	period, err := periodParam(c, "period", true)
	if err != nil {
		return err
	}
	f := filterParams(c)

	series, err := h.svc.ResolveSeries(f)
	if err != nil {
		return httpError(err)
	}
	// Pin the lookup to the resolved id so a reload in between cannot
	// answer from a different series.
	v, err := h.svc.Get(*period, cpi.Filter{SeriesID: series.ID})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, indexResponse{
		SeriesID: series.ID,
		Period:   period.String(),
		Value:    v,
	})
}

func (h *Handler) GetInflate(c echo.Context) error {
	amount, err := decimal.NewFromString(c.QueryParam("amount"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be a number")
	}
	from, err := periodParam(c, "from", true)
	if err != nil {
		return err
	}
	to, err := periodParam(c, "to", false)
	if err != nil {
		return err
	}

	series, err := h.svc.ResolveSeries(filterParams(c))
	if err != nil {
		return httpError(err)
	}
	pinned := cpi.Filter{SeriesID: series.ID}

	resp := inflateResponse{
		SeriesID: series.ID,
		Amount:   amount.InexactFloat64(),
		From:     from.String(),
	}
	if to != nil {
		resp.To = to.String()
	}

	if raw := c.QueryParam("places"); raw != "" {
		places, err := strconv.Atoi(raw)
		if err != nil || places < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "places must be a non-negative integer")
		}
		d, err := h.svc.InflateDecimal(amount, *from, to, pinned)
		if err != nil {
			return httpError(err)
		}
		d = d.Round(int32(places))
		resp.Decimal = d.StringFixed(int32(places))
		resp.Value = d.InexactFloat64()
		return c.JSON(http.StatusOK, resp)
	}

	v, err := h.svc.Inflate(resp.Amount, *from, to, pinned)
	if err != nil {
		return httpError(err)
	}
	resp.Value = v
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetSeries(c echo.Context) error {
	series, err := h.svc.ResolveSeries(filterParams(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, series.Info())
}

func (h *Handler) GetAreas(c echo.Context) error {
	areas, err := h.svc.ListAreas()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slices.Collect(areas))
}

func (h *Handler) GetItems(c echo.Context) error {
	items, err := h.svc.ListItems()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slices.Collect(items))
}

func (h *Handler) GetStatus(c echo.Context) error {
	snap, err := h.svc.Snapshot()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, statusResponse{Status: "loading"})
	}
	resp := statusResponse{
		Status:   "ready",
		Version:  snap.Version,
		LoadedAt: snap.LoadedAt.Format(time.RFC3339),
		Series:   snap.Catalog.Len(),
	}
	if s, err := snap.Catalog.Default(); err == nil {
		resp.Default = s.ID
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) PostReload(c echo.Context) error {
	t0 := time.Now()
	snap, err := h.reload(c.Request().Context())
	if err != nil {
		logger.Error("reload failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "reload failed: "+err.Error())
	}
	h.svc.Reload(snap)
	logger.Info("reload complete in %v", time.Since(t0))
	return c.JSON(http.StatusOK, statusResponse{
		Status:   "ready",
		Version:  snap.Version,
		LoadedAt: snap.LoadedAt.Format(time.RFC3339),
		Series:   snap.Catalog.Len(),
	})
}

// httpError maps the cpi error taxonomy onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, cpi.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	case errors.Is(err, cpi.ErrPeriodMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case cpi.IsLookupFault(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case cpi.IsIntegrityFault(err):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
