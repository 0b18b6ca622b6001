package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/gorilla/mux"
)

// Recorder is what the HTTP surface reports to the metrics layer.
type Recorder interface {
	GateRecorder
	HTTPRecorder
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Users          UserService
	Lists          ListService
	Tasks          TaskService
	Logger         logging.Logger
	Recorder       Recorder
	Metrics        http.Handler
	BypassPaths    []string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter registers every route and wraps the router with the middleware
// chain. The gate sits inside the timeout so authentication shares the
// request deadline.
func NewRouter(o RouterOptions) http.Handler {
	log := o.Logger
	if log == nil {
		log = logging.Nop{}
	}

	h := NewHandlers(o.Users, o.Lists, o.Tasks, log)

	r := mux.NewRouter()
	r.HandleFunc("/api/ping", h.Ping).Methods(http.MethodGet)

	auth := r.PathPrefix("/users/auth").Subrouter()
	auth.HandleFunc("/register", h.Signup).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	auth.HandleFunc("/me", h.Me).Methods(http.MethodGet)

	r.HandleFunc("/lists", h.ListLists).Methods(http.MethodGet)
	r.HandleFunc("/lists", h.CreateList).Methods(http.MethodPost)
	r.HandleFunc("/lists/{id}", h.GetList).Methods(http.MethodGet)
	r.HandleFunc("/lists/{id}", h.UpdateList).Methods(http.MethodPatch)
	r.HandleFunc("/lists/{id}", h.DeleteList).Methods(http.MethodDelete)

	r.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", h.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", h.UpdateTask).Methods(http.MethodPatch)
	r.HandleFunc("/tasks/{id}", h.DeleteTask).Methods(http.MethodDelete)

	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, common.MessageNotFound, "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	var gateRec GateRecorder
	mws := []Middleware{
		RecoveryMiddleware(log),
		RequestIDMiddleware,
		LoggingMiddleware(log),
	}
	if o.Recorder != nil {
		gateRec = o.Recorder
		mws = append(mws, MetricsMiddleware(r, o.Recorder))
	}
	gate := NewGate(o.Users, NewBypassList(o.BypassPaths), log, gateRec)
	mws = append(mws,
		CORSMiddleware(o.AllowedOrigins),
		TimeoutMiddleware(o.RequestTimeout),
		gate.Middleware,
	)

	return Chain(r, mws...)
}
