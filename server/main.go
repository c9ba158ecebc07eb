// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/croessner/ldapauth/config"
	"github.com/croessner/ldapauth/core"
	"github.com/croessner/ldapauth/definitions"
	"github.com/croessner/ldapauth/directory"
	"github.com/croessner/ldapauth/log"
	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

var version = "dev"

// ginReporter translates terminal authentication outcomes into HTTP
// responses on the gin context it wraps.
type ginReporter struct {
	ctx *gin.Context
}

func (r *ginReporter) Success(user any) {
	r.ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (r *ginReporter) Failure(reason core.Reason) {
	code := reason.Code
	if code < http.StatusBadRequest || code > 599 {
		code = http.StatusUnauthorized
	}

	r.ctx.JSON(code, gin.H{"message": reason.Message})
}

func (r *ginReporter) Error(_ error) {
	// Internal detail never leaks to the client; the attempt already
	// logged the underlying error.
	r.ctx.JSON(http.StatusInternalServerError, gin.H{"message": http.StatusText(http.StatusInternalServerError)})
}

func loginHandler(authenticator *core.Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result := authenticator.Authenticate(ctx.Request.Context(), ctx.Request)

		result.Report(&ginReporter{ctx: ctx})
	}
}

func main() {
	var (
		configPath  string
		listenAddr  string
		verbosity   config.Verbosity
		logJSON     bool
		showVersion bool
	)

	_ = verbosity.Set("info")

	pflag.StringVar(&configPath, "config", "ldapauth.yml", "path to the configuration file")
	pflag.StringVar(&listenAddr, "listen", "127.0.0.1:8080", "HTTP listen address")
	pflag.Var(&verbosity, "log-level", "log level (none, error, warn, info, debug)")
	pflag.BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	pflag.BoolVar(&showVersion, "version", false, "print version and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println("ldapauth", version)

		os.Exit(0)
	}

	log.SetupLogging(verbosity.Level(), logJSON, !logJSON, definitions.InstanceName)

	conf, err := config.NewConfigFile(configPath)
	if err != nil {
		stdlog.Fatalln("Unable to load the configuration. Error:", err)
	}

	authenticator := core.NewAuthenticator(conf, directory.NewConnector(conf), nil)

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())

	router.POST("/login", loginHandler(authenticator))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		level.Info(log.Logger).Log(definitions.LogKeyMsg, "Starting HTTP server", "address", listenAddr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdlog.Fatalln("HTTP server failed. Error:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan

	level.Info(log.Logger).Log(definitions.LogKeyMsg, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		level.Error(log.Logger).Log(definitions.LogKeyError, err)
	}
}
