package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/de-tools/line-report/pkg/adapters"
	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
	"github.com/de-tools/line-report/pkg/services/export"
	"github.com/de-tools/line-report/pkg/services/report"
	"github.com/de-tools/line-report/pkg/services/timerange"
)

const (
	defaultListLimit = 20
	maxUploadBytes   = 32 << 20
	writeWait        = 10 * time.Second
)

// chart uploads accepted by the docx export, keyed by form field.
var imageFields = []string{"availabilityImages", "failureImages"}

// Archive is the read side of the report archive.
type Archive interface {
	Get(ctx context.Context, id string) (domain.ReportCollection, error)
	ListRecent(ctx context.Context, surface string, limit int) ([]domain.ReportCollection, error)
	ListByProcess(ctx context.Context, process string, limit int) ([]domain.ReportCollection, error)
}

type Handler struct {
	reports  report.Manager
	archive  Archive
	exporter export.Exporter
	upgrader websocket.Upgrader
}

func NewHandler(reports report.Manager, archive Archive, exporter export.Exporter) *Handler {
	return &Handler{
		reports:  reports,
		archive:  archive,
		exporter: exporter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	rng, err := requestRange(req)
	if err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}

	coll, err := h.reports.Generate(ctx, req.Surface, req.Processes, rng, adapters.MapAPIOptionsToDomain(req.Options))
	if err != nil {
		logger.Warn().Err(err).Str("surface", req.Surface).Msg("report generation failed")
		writeError(ctx, w, statusFor(err), err)
		return
	}

	snap := coll.Snapshot()
	logger.Info().
		Str("collection", snap.ID).
		Str("surface", snap.Surface).
		Str("range", snap.Range.String()).
		Int("processes", len(snap.Reports)).
		Msg("report generated")

	writeJSON(ctx, w, http.StatusCreated, toAPI(snap, ""))
}

// requestRange accepts either the dashboard selection or the "start/end" wire form
// of an earlier collection.
func requestRange(req api.CreateReportRequest) (domain.TimeRange, error) {
	if strings.Contains(req.Range, "/") {
		return timerange.Parse(req.Range)
	}
	return timerange.Normalize(domain.PeriodType(req.PeriodType), req.Range, req.Start, req.End)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	snap, err := h.collection(ctx, id)
	if err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toAPI(snap, r.URL.Query().Get("tab")))
}

// StreamEvents pushes a snapshot, then every section event, then the settled
// collection, and closes the socket.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	id := chi.URLParam(r, "id")

	coll, live := h.reports.Lookup(id)
	var archived domain.ReportCollection
	if !live {
		var err error
		archived, err = h.collection(ctx, id)
		if err != nil {
			writeError(ctx, w, statusFor(err), err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if !live {
		_ = writeEvent(conn, settledEvent(archived))
		return
	}

	events, unsubscribe := h.reports.Subscribe(id)
	defer unsubscribe()

	if err := writeEvent(conn, snapshotEvent(coll.Snapshot())); err != nil {
		return
	}

	// reader goroutine notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if err := writeEvent(conn, adapters.MapDomainEventToAPI(ev)); err != nil {
				logger.Debug().Err(err).Msg("event subscriber went away")
				return
			}
		case <-coll.Done():
			if err := flushEvents(conn, events); err != nil {
				return
			}
			_ = writeEvent(conn, settledEvent(coll.Snapshot()))
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "settled"),
				time.Now().Add(writeWait),
			)
			return
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	id := chi.URLParam(r, "id")

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	images, err := readImages(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.collection(ctx, id)
	if err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}

	doc, err := h.exporter.Export(ctx, snap, format, images)
	if err != nil {
		writeError(ctx, w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		logger.Error().Err(err).Msg("failed to write exported document")
	}
}

func (h *Handler) ListSurfaceReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surface := chi.URLParam(r, "surface")

	colls, err := h.archive.ListRecent(ctx, surface, limitParam(r))
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toAPIList(colls))
}

func (h *Handler) ListProcessReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	process := chi.URLParam(r, "process")

	colls, err := h.archive.ListByProcess(ctx, process, limitParam(r))
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toAPIList(colls))
}

// collection prefers the live collection and falls back to the archive.
func (h *Handler) collection(ctx context.Context, id string) (domain.ReportCollection, error) {
	if coll, ok := h.reports.Lookup(id); ok {
		return coll.Snapshot(), nil
	}
	if h.archive == nil {
		return domain.ReportCollection{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return h.archive.Get(ctx, id)
}

func toAPI(c domain.ReportCollection, tab string) api.ReportCollection {
	out := adapters.MapDomainCollectionToAPI(c)
	out.Tabs = domain.TabVisibility(c.Processes(), tab)
	return out
}

func toAPIList(colls []domain.ReportCollection) []api.ReportCollection {
	out := make([]api.ReportCollection, 0, len(colls))
	for _, c := range colls {
		out = append(out, adapters.MapDomainCollectionToAPI(c))
	}
	return out
}

func snapshotEvent(c domain.ReportCollection) api.SectionEvent {
	coll := toAPI(c, "")
	return api.SectionEvent{
		Type:         "snapshot",
		CollectionID: c.ID,
		Generation:   c.Generation,
		Timestamp:    time.Now().UTC(),
		Collection:   &coll,
	}
}

func settledEvent(c domain.ReportCollection) api.SectionEvent {
	ev := snapshotEvent(c)
	ev.Type = "settled"
	return ev
}

func writeEvent(conn *websocket.Conn, ev api.SectionEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

// flushEvents writes the events already buffered when the collection settled.
func flushEvents(conn *websocket.Conn, events <-chan domain.SectionEvent) error {
	for {
		select {
		case ev := <-events:
			if err := writeEvent(conn, adapters.MapDomainEventToAPI(ev)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func readImages(r *http.Request) ([]api.ChartImage, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, nil
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid export form: %w", err)
	}

	var images []api.ChartImage
	for _, field := range imageFields {
		for _, fh := range r.MultipartForm.File[field] {
			img, err := readImage(field, fh)
			if err != nil {
				return nil, err
			}
			images = append(images, img)
		}
	}
	return images, nil
}

func readImage(field string, fh *multipart.FileHeader) (api.ChartImage, error) {
	f, err := fh.Open()
	if err != nil {
		return api.ChartImage{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return api.ChartImage{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return api.ChartImage{Field: field, Filename: fh.Filename, PNG: data}, nil
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case domain.IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	writeJSON(ctx, w, status, api.ErrorResponse{Error: err.Error()})
}
