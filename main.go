package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/database"
	"github.com/formloom/formloom/httpx"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/routes"
	"github.com/formloom/formloom/storage"
	"github.com/formloom/formloom/submit"
	"github.com/formloom/formloom/upload"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	store := storage.NewSQLite(db)

	var uploader submit.Uploader
	if cfg.UploadsEnabled() {
		uploader, err = upload.NewS3(context.Background(), cfg)
		if err != nil {
			log.Fatal("main.upload:", err)
		}
	} else {
		log.Warn("file storage not configured, file_upload fields will reject submissions")
	}

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		Forms:        store,
		Responses:    store,
		Uploader:     uploader,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
