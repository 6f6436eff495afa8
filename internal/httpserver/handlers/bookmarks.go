package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/feed"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/logger"
	"github.com/marklet/marklet/internal/store/sqlite"
)

// ListBookmarks returns the caller's bookmarks, newest first.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no identity")
			return
		}

		bookmarks, err := d.Bookmarks.ListBookmarks(r.Context(), ident.ID)
		if err != nil {
			d.Logger.Error("listing bookmarks failed",
				logger.String("owner_id", ident.ID),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "listing bookmarks failed")
			return
		}

		writeJSON(w, http.StatusOK, bookmarks)
	}
}

// CreateBookmark validates the draft, stores it for the caller and
// announces the change on the feed. The created row is returned, but
// clients are expected to refresh through the change notification
// rather than splice the response into their local list.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no identity")
			return
		}

		var draft domain.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := draft.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := d.Bookmarks.InsertBookmark(r.Context(), ident.ID, draft)
		if err != nil {
			d.Logger.Error("inserting bookmark failed",
				logger.String("owner_id", ident.ID),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "inserting bookmark failed")
			return
		}

		// Best effort: a lost notification delays the refresh until
		// the owner's next change, it does not lose the write.
		if err := d.Publisher.BookmarksChanged(r.Context(), ident.ID, feed.OpInsert); err != nil {
			d.Logger.Warn("publishing insert notification failed",
				logger.String("owner_id", ident.ID),
				logger.Error(err))
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// DeleteBookmark removes one of the caller's bookmarks by id.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no identity")
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing bookmark id")
			return
		}

		err := d.Bookmarks.DeleteBookmark(r.Context(), ident.ID, id)
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		if err != nil {
			d.Logger.Error("deleting bookmark failed",
				logger.String("owner_id", ident.ID),
				logger.String("bookmark_id", id),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "deleting bookmark failed")
			return
		}

		if err := d.Publisher.BookmarksChanged(r.Context(), ident.ID, feed.OpDelete); err != nil {
			d.Logger.Warn("publishing delete notification failed",
				logger.String("owner_id", ident.ID),
				logger.Error(err))
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
