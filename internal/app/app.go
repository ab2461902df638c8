package app

import (
	"context"
	"database/sql"
	"net/http"

	"service-attendance/internal/cache"
	"service-attendance/internal/config"
	transport "service-attendance/internal/http"
	"service-attendance/internal/http/handlers"
	"service-attendance/internal/repository"
	"service-attendance/internal/service"
)

type App struct {
	handler       http.Handler
	noticeService *service.NoticeService
}

func New(db *sql.DB, cfg config.Config, redisCache *cache.Cache) *App {
	txManager := repository.NewPostgresTxManager(db)
	directory := service.NewDirectoryHTTPClient(cfg.DirectoryBaseURL, service.DefaultDirectoryHTTPClient())

	timetableService := service.NewTimetableService(txManager)
	attendanceService := service.NewAttendanceService(txManager, directory)
	statsService := service.NewStatsService(txManager, directory)
	noticeService := service.NewNoticeService(txManager, redisCache)

	router := transport.NewRouter(
		handlers.NewTimetableHandler(timetableService, redisCache, cfg.LiveCacheTTL),
		handlers.NewAttendanceHandler(attendanceService),
		handlers.NewStatsHandler(statsService),
		handlers.NewNoticeHandler(noticeService),
	)

	return &App{handler: router.Handler(), noticeService: noticeService}
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// DrainNotices delivers pending timetable-change events as notices.
func (a *App) DrainNotices(ctx context.Context) (int, error) {
	return a.noticeService.DrainOutbox(ctx)
}
