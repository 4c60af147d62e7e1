package handlers

import (
	"errors"
	"net/http"

	"carddeps/domain/core/valueobjects"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"
	"carddeps/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; item pushes carry checklists
const maxBodyBytes = 1 << 20

// decodeRequest parses and validates a JSON body
func decodeRequest(r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		return apperrors.NewValidationError("Invalid request body: " + err.Error())
	}
	if err := utils.ValidateStruct(v); err != nil {
		appErr := apperrors.NewValidationError(err.Error())
		var fields utils.FieldErrors
		if errors.As(err, &fields) {
			appErr = appErr.WithDetails(fields.Details())
		}
		return appErr
	}
	return nil
}

// itemIDParam reads and validates an item id from the route
func itemIDParam(r *http.Request, name string) (valueobjects.ItemID, error) {
	id, err := valueobjects.NewItemID(chi.URLParam(r, name))
	if err != nil {
		return "", apperrors.NewValidationError(err.Error()).WithDetails(map[string]interface{}{"param": name})
	}
	return id, nil
}
