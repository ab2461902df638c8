package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-attendance/internal/http/handlers"
)

type Router struct {
	mux *chi.Mux
}

func NewRouter(
	timetable *handlers.TimetableHandler,
	attendance *handlers.AttendanceHandler,
	stats *handlers.StatsHandler,
	notices *handlers.NoticeHandler,
) *Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	timetable.Register(r)
	attendance.Register(r)
	stats.Register(r)
	notices.Register(r)

	return &Router{mux: r}
}

func (r *Router) Handler() http.Handler {
	return r.mux
}
