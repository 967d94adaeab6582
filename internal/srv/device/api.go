package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/voltlane/ecdkit/apimodel"
	"github.com/voltlane/ecdkit/internal/srv/config"
	"github.com/voltlane/ecdkit/internal/srv/event"
)

type Api struct {
	lock         sync.RWMutex
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config  *config.ServerConfig
	askDone chan bool
	done    chan bool
}

func NewApi(config *config.ServerConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.ApiEvent),
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/segment/{index}/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			indexStr, ok := vars["index"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			index, err := strconv.ParseInt(indexStr, 10, 0)
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}

			stateStr, ok := vars["state"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			var colored bool
			switch stateStr {
			case "colored":
				colored = true
			case "bleached":
				colored = false
			default:
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}

			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventSegmentSetData{Segment: int(index), Colored: colored}}
			err = <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusForbidden)
			}
		}).Methods("POST")
	api.apiRouter.HandleFunc("/bleach_all",
		func(w http.ResponseWriter, r *http.Request) {
			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventBleachAllData{}}
			err := <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusForbidden)
			}
		}).Methods("POST")
	api.apiRouter.HandleFunc("/animation/{animation_id}",
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			animationIdStr, ok := vars["animation_id"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			animationId, err := strconv.ParseInt(animationIdStr, 10, 0)
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventAnimationData{Animation: int(animationId)}}
			err = <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusForbidden)
			}
		}).Methods("POST")
	api.apiRouter.HandleFunc("/stop",
		func(w http.ResponseWriter, r *http.Request) {
			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventStopData{}}
			err := <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusForbidden)
			}
		}).Methods("POST")
	api.apiRouter.HandleFunc("/cancel",
		func(w http.ResponseWriter, r *http.Request) {
			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventCancelData{}}
			err := <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusForbidden)
			}
		}).Methods("POST")
	api.apiRouter.HandleFunc("/status",
		func(w http.ResponseWriter, r *http.Request) {
			reply := make(chan apimodel.PanelStatus)
			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventStatusData{Reply: reply}}
			status := <-reply
			<-result

			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(status); err != nil {
				logrus.Warnf("Unable to encode panel status: %v", err)
			}
		}).Methods("GET")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.Port, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	go func() {
		err := d.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	d.server.Shutdown(context.Background())
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := &apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}

	if title == "" {
		switch status {
		case http.StatusOK:
			errorMessage.ErrMessage = "Ok"
		case http.StatusNotFound:
			errorMessage.ErrMessage = "Page not found"
		case http.StatusMethodNotAllowed:
			errorMessage.ErrMessage = "Method not allowed"
		case http.StatusForbidden:
			errorMessage.ErrMessage = "Forbidden"
		case http.StatusServiceUnavailable:
			errorMessage.ErrMessage = "Service unavailable"
		case http.StatusBadRequest:
			errorMessage.ErrMessage = "Bad request"
		default:
			errorMessage.ErrMessage = "Internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorMessage)
}
