package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/virtualzone/chargebot-easee/easee"
)

const MaxReadingsResponse = 100

type ChargerRouter struct {
	WebsocketUpgrader websocket.Upgrader
}

type PinCodeRequest struct {
	PinCode string `json:"pin_code" validate:"required"`
}

type SiteResponse struct {
	*easee.Site
	CountryID string `json:"country_id"`
}

func (router *ChargerRouter) SetupRoutes(s *mux.Router) {
	router.WebsocketUpgrader = websocket.Upgrader{}
	s.HandleFunc("/", router.listChargers).Methods("GET")
	s.HandleFunc("/{id}/state", router.getState).Methods("GET")
	s.HandleFunc("/{id}/config", router.getConfiguration).Methods("GET")
	s.HandleFunc("/{id}/site", router.getSite).Methods("GET")
	s.HandleFunc("/{id}/readings", router.getReadings).Methods("GET")
	s.HandleFunc("/{id}/events", router.getEvents).Methods("GET")
	s.HandleFunc("/{id}/pause", router.pause).Methods("POST")
	s.HandleFunc("/{id}/resume", router.resume).Methods("POST")
	s.HandleFunc("/{id}/poll_energy", router.pollEnergy).Methods("POST")
	s.HandleFunc("/{id}/pair", router.pair).Methods("POST")
	s.HandleFunc("/{id}/unpair", router.unpair).Methods("POST")
	s.HandleFunc("/{id}/ws", router.websocket).Methods("GET")
}

// sendError maps Easee client errors onto the response status.
func (router *ChargerRouter) sendError(w http.ResponseWriter, err error) {
	log.Println(err)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, easee.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, easee.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	}
	SendStatusJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (router *ChargerRouter) listChargers(w http.ResponseWriter, r *http.Request) {
	list, err := GetEaseeAPI().Chargers(r.Context())
	if err != nil {
		router.sendError(w, err)
		return
	}
	SendJSON(w, list)
}

func (router *ChargerRouter) getState(w http.ResponseWriter, r *http.Request) {
	state, err := GetEaseeAPI().State(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		router.sendError(w, err)
		return
	}
	SendJSON(w, state)
}

func (router *ChargerRouter) getConfiguration(w http.ResponseWriter, r *http.Request) {
	config, err := GetEaseeAPI().Configuration(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		router.sendError(w, err)
		return
	}
	SendJSON(w, config)
}

func (router *ChargerRouter) getSite(w http.ResponseWriter, r *http.Request) {
	site, err := GetEaseeAPI().Site(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		router.sendError(w, err)
		return
	}
	SendJSON(w, SiteResponse{Site: site, CountryID: site.CountryID()})
}

func (router *ChargerRouter) getReadings(w http.ResponseWriter, r *http.Request) {
	list := GetDB().GetLatestMeterReadings(mux.Vars(r)["id"], MaxReadingsResponse)
	SendJSON(w, list)
}

func (router *ChargerRouter) getEvents(w http.ResponseWriter, r *http.Request) {
	list := GetDB().GetLatestChargerEvents(mux.Vars(r)["id"], 50)
	SendJSON(w, list)
}

func (router *ChargerRouter) pause(w http.ResponseWriter, r *http.Request) {
	chargerID := mux.Vars(r)["id"]
	if err := GetEaseeAPI().PauseCharging(r.Context(), chargerID); err != nil {
		router.sendError(w, err)
		return
	}
	GetDB().LogChargerEvent(chargerID, LogEventPause, "")
	SendJSON(w, true)
}

func (router *ChargerRouter) resume(w http.ResponseWriter, r *http.Request) {
	chargerID := mux.Vars(r)["id"]
	if err := GetEaseeAPI().ResumeCharging(r.Context(), chargerID); err != nil {
		router.sendError(w, err)
		return
	}
	GetDB().LogChargerEvent(chargerID, LogEventResume, "")
	SendJSON(w, true)
}

func (router *ChargerRouter) pollEnergy(w http.ResponseWriter, r *http.Request) {
	chargerID := mux.Vars(r)["id"]
	if err := GetEaseeAPI().PollLifetimeEnergy(r.Context(), chargerID); err != nil {
		router.sendError(w, err)
		return
	}
	GetDB().LogChargerEvent(chargerID, LogEventPollEnergy, "")
	SendJSON(w, true)
}

func (router *ChargerRouter) pair(w http.ResponseWriter, r *http.Request) {
	var m PinCodeRequest
	if err := UnmarshalValidateBody(r.Body, &m); err != nil {
		SendBadRequest(w)
		return
	}
	chargerID := mux.Vars(r)["id"]
	if err := GetEaseeAPI().Pair(r.Context(), chargerID, m.PinCode); err != nil {
		router.sendError(w, err)
		return
	}
	GetDB().LogChargerEvent(chargerID, LogEventPair, "")
	SendJSON(w, true)
}

func (router *ChargerRouter) unpair(w http.ResponseWriter, r *http.Request) {
	var m PinCodeRequest
	if err := UnmarshalValidateBody(r.Body, &m); err != nil {
		SendBadRequest(w)
		return
	}
	chargerID := mux.Vars(r)["id"]
	if err := GetEaseeAPI().Unpair(r.Context(), chargerID, m.PinCode); err != nil {
		router.sendError(w, err)
		return
	}
	GetDB().LogChargerEvent(chargerID, LogEventUnpair, "")
	SendJSON(w, true)
}

func (router *ChargerRouter) websocket(w http.ResponseWriter, r *http.Request) {
	chargerID := mux.Vars(r)["id"]
	c, err := router.WebsocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer c.Close()
	// the http server's timeouts must not apply to the stream
	c.SetReadDeadline(time.Time{})

	updates := GetStateHub().Subscribe(chargerID)
	defer GetStateHub().Unsubscribe(chargerID, updates)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if state := GetDB().GetChargerState(chargerID); state != nil {
		if err := router.sendWebsocketState(c, state); err != nil {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case state := <-updates:
			if err := router.sendWebsocketState(c, state); err != nil {
				log.Println("write:", err)
				return
			}
		}
	}
}

func (router *ChargerRouter) sendWebsocketState(c *websocket.Conn, state *ChargerState) error {
	c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.WriteJSON(state)
}
