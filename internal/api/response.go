package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/models/dtos/responses"
	"comedyuo/showsync/internal/providers"
	"comedyuo/showsync/internal/services"
)

func respondWithSuccess[T any](w http.ResponseWriter, statusCode int, data *T) {
	writeJSON(w, statusCode, responses.APIResponse[T]{
		Success: true,
		Data:    data,
	})
}

func respondWithList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	writeJSON(w, http.StatusOK, responses.APIResponse[[]T]{
		Success: true,
		Data:    &items,
		Count:   &count,
	})
}

func respondWithMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, responses.APIResponse[any]{
		Success: true,
		Message: message,
	})
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, responses.APIResponse[any]{
		Success: false,
		Error:   message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps a service error to its HTTP status and writes it
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr  *services.ValidationError
		notFoundErr    *services.NotFoundError
		conflictErr    *services.ConflictError
		emailErr       *services.EmailError
		persistenceErr *services.PersistenceError
		remoteErr      *providers.RemoteStoreError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, responses.APIResponse[any]{
			Success: false,
			Error:   validationErr.Message,
			Details: validationErr.Details,
		})
	case errors.As(err, &notFoundErr):
		respondWithError(w, http.StatusNotFound, constants.MsgShowNotFound)
	case errors.As(err, &conflictErr):
		respondWithError(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &emailErr):
		if emailErr.NotConfigured {
			respondWithError(w, http.StatusInternalServerError, constants.MsgEmailNotConfigured)
			return
		}
		respondWithError(w, http.StatusInternalServerError, emailErr.Error())
	case errors.As(err, &remoteErr):
		respondWithError(w, http.StatusInternalServerError, remoteErr.Error())
	case errors.As(err, &persistenceErr):
		logging.Error("Persistence failure", "op", persistenceErr.Op, "error", persistenceErr.Err)
		respondWithError(w, http.StatusInternalServerError, constants.MsgInternalServerError)
	default:
		logging.Error("Unhandled service error", "error", err)
		respondWithError(w, http.StatusInternalServerError, constants.MsgInternalServerError)
	}
}
