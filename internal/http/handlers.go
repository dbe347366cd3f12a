package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"investtracker/internal/core"
	applog "investtracker/internal/log"
	"investtracker/internal/window"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady pings the record store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "store": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "store": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", http.StatusOK, NewHTMXResponse())
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	s.renderWindow(w, r, http.StatusOK)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request").Write(w)
		return
	}
	req := AddRequest{Type: p.Get("type"), Amount: p.Get("amount")}
	if err := validate.Struct(req); err != nil {
		BadRequestError(describeValidation(err)).Write(w)
		return
	}

	if err := s.win.Add(r.Context(), req.Type, req.Amount); err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	s.respondWindow(w, r, http.StatusOK, NewHTMXResponse().TriggerInvestmentsChanged(s.win.Period().String()))
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query(), s.win.Period())
	p, err := s.win.Filter(r.Context(), params.Year, params.Month)
	if err != nil {
		s.fail(w, r, applog.OpFilter, err)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Filter applied",
		applog.NewFields().WithOperation(applog.OpFilter).WithPeriod(p.Year, p.Month).ToSlice()...)
	s.renderWindow(w, r, http.StatusOK)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	row, err := ParseRow(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.win.Select(row); err != nil {
		s.fail(w, r, applog.OpSelect, err)
		return
	}
	s.renderWindow(w, r, http.StatusOK)
}

func (s *Server) handleEditAmount(w http.ResponseWriter, r *http.Request) {
	row, err := ParseRow(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request").Write(w)
		return
	}
	if err := s.win.EditAmount(r.Context(), row, p.Get("amount")); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	s.respondWindow(w, r, http.StatusOK, NewHTMXResponse().TriggerInvestmentsChanged(s.win.Period().String()))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	row, err := ParseRow(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.win.RequestDelete(row); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	s.renderWindow(w, r, http.StatusOK)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request").Write(w)
		return
	}
	req := ConfirmRequest{Answer: p.Get("answer")}
	if err := validate.Struct(req); err != nil {
		BadRequestError(describeValidation(err)).Write(w)
		return
	}

	if err := s.win.Confirm(r.Context(), req.Yes()); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	b := NewHTMXResponse()
	if req.Yes() {
		b.TriggerInvestmentsChanged(s.win.Period().String())
	}
	s.respondWindow(w, r, http.StatusOK, b)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.win.Dismiss()
	s.renderWindow(w, r, http.StatusOK)
}

// handleQuit answers first and then asks the process to stop.
func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Window closed by user", applog.FieldOperation, applog.OpShutdown)
	s.render(w, r, "closed.html", http.StatusOK, NewHTMXResponse().TriggerWindowClosed())
	s.requestQuit()
}

// fail maps window errors to responses. Every case re-renders the window,
// which already carries the warning or error box.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	fields := applog.NewFields().WithOperation(op).WithError(err)

	switch {
	case core.IsValidation(err):
		s.renderWindow(w, r, http.StatusUnprocessableEntity)
	case errors.Is(err, window.ErrNoSuchRow), errors.Is(err, window.ErrNotDeletable):
		fields[applog.FieldRow] = r.PathValue("row")
		logger.InfoContext(ctx, "Stale row reference", fields.ToSlice()...)
		s.renderWindow(w, r, http.StatusConflict)
	default:
		logger.ErrorContext(ctx, "Storage operation failed", fields.WithErrorType(applog.ErrorTypeDatabase).ToSlice()...)
		s.win.ReportFailure()
		s.renderWindow(w, r, http.StatusInternalServerError)
	}
}

func (s *Server) renderWindow(w http.ResponseWriter, r *http.Request, status int) {
	s.respondWindow(w, r, status, NewHTMXResponse())
}

// respondWindow answers window.js with the window fragment. A plain form
// post gets the whole page back, or a redirect to it after a successful
// change so that reloading the page does not repeat the action.
func (s *Server) respondWindow(w http.ResponseWriter, r *http.Request, status int, b *HTMXResponseBuilder) {
	switch {
	case IsHTMX(r):
		s.render(w, r, "window", status, b)
	case status == http.StatusOK && r.Method == http.MethodPost:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		s.render(w, r, "index.html", status, b)
	}
}

// render executes a template into a buffer so that a failure never leaves a
// half written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, b *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, s.win.View()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldOperation, applog.OpRender, "template", name, applog.FieldError, err)
		InternalServerError("Rendering failed.").Write(w)
		return
	}
	b.Status(status).BodyHTML(buf.Bytes()).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
