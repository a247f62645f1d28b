package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jimiolaniyan/accounts/auth"
)

type middleware func(http.Handler) http.Handler

func passthrough(next http.Handler) http.Handler { return next }

type routes struct {
	svc      auth.Service
	sessions auth.SessionVerifier
	metrics  *auth.Metrics
	gatherer prometheus.Gatherer
	signup   middleware
	login    middleware
}

func newRouter(rt routes) http.Handler {
	if rt.signup == nil {
		rt.signup = passthrough
	}
	if rt.login == nil {
		rt.login = passthrough
	}

	router := httprouter.New()
	router.Handler(http.MethodPost, "/user/signup", rt.signup(auth.RegisterAccountHandler(rt.svc, rt.metrics)))
	router.Handler(http.MethodPost, "/user/verify-email", auth.VerifyEmailHandler(rt.svc, rt.metrics))
	router.Handler(http.MethodPost, "/user/login", rt.login(auth.LoginHandler(rt.svc, rt.metrics)))
	router.Handler(http.MethodGet, "/user/profile", auth.RequireAuth(auth.GetProfileHandler(rt.svc, rt.metrics), rt.sessions))
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return router
}
