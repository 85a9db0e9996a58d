package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

var httpRouter *mux.Router
var validate = validator.New()

func SendBadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
}

func SendUnauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
}

func SendInternalServerError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
}

func SendJSON(w http.ResponseWriter, v interface{}) {
	SendStatusJSON(w, http.StatusOK, v)
}

func SendStatusJSON(w http.ResponseWriter, status int, v interface{}) {
	json, err := json.Marshal(v)
	if err != nil {
		log.Println(err)
		SendInternalServerError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(json)
}

func UnmarshalBody(r io.Reader, o interface{}) error {
	if r == nil {
		return errors.New("body is NIL")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, &o); err != nil {
		return err
	}
	return nil
}

func UnmarshalValidateBody(r io.Reader, o interface{}) error {
	err := UnmarshalBody(r, &o)
	if err != nil {
		return err
	}
	err = validate.Struct(o)
	if err != nil {
		return err
	}
	return nil
}

// GetAuthTokenFromRequest reads the bearer token from the Authorization
// header, or from the token query parameter for websocket clients.
func GetAuthTokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func GetUserIDFromRequest(r *http.Request) string {
	authToken := GetAuthTokenFromRequest(r)
	if authToken == "" || GetConfig().TokenSecret == "" {
		return ""
	}
	token, err := jwt.Parse(authToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(GetConfig().TokenSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		LogDebug("rejected bearer token: " + err.Error())
		return ""
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserIDFromRequest(r) == "" {
			SendUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func InitHTTPRouter() {
	httpRouter = mux.NewRouter()
	chargerRouter := &ChargerRouter{}
	s := httpRouter.PathPrefix("/api/1/chargers").Subrouter()
	s.Use(authMiddleware)
	chargerRouter.SetupRoutes(s)
	httpRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SendJSON(w, true)
	}).Methods("GET")
}

func ServeHTTP() {
	log.Println("Initializing REST services...")
	httpServer := &http.Server{
		Addr:         "0.0.0.0:" + strconv.Itoa(GetConfig().Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      httpRouter,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()
	log.Println("HTTP Server listening")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	httpServer.Shutdown(ctx)
}
