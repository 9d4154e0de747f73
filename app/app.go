package app

import (
	"github.com/go-chi/oauth"

	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/storage"
	"github.com/formloom/formloom/submit"
)

// App bundles the collaborators the controllers need. Stores and the
// uploader are interfaces so route tests can swap in fakes.
type App struct {
	Forms     storage.FormStore
	Responses storage.ResponseStore
	Uploader  submit.Uploader
	*oauth.BearerServer
	config.Config
}
