package handler

import (
	"net/http"

	"firecms/internal/delivery/http/response"
	domainerrors "firecms/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// HashPasswordRequest represents the body of a hash request
type HashPasswordRequest struct {
	Password string `json:"password" validate:"required,max=4096"`
}

// VerifyPasswordRequest represents the body of a verify request
type VerifyPasswordRequest struct {
	Password string `json:"password" validate:"required,max=4096"`
	Hash     string `json:"hash" validate:"required"`
}

// VerifyPasswordResult is the ajax payload of VerifyPassword. Rehash is set
// only for a valid password whose hash is stale.
type VerifyPasswordResult struct {
	Valid       bool   `json:"valid"`
	NeedsRehash bool   `json:"needs_rehash"`
	Rehash      string `json:"rehash,omitempty"`
}

// HashPassword hashes the submitted password with the configured algorithm.
func HashPassword(c echo.Context) error {
	var req HashPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid password input")
	}
	if err := c.Validate(&req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	a, err := app(c)
	if err != nil {
		return err
	}

	hash, err := a.Hasher.Hash(req.Password)
	if err != nil {
		return err
	}

	return a.Responder.SendAjaxCall(c, map[string]string{"hash": hash}, http.StatusOK)
}

// VerifyPassword checks a password against a stored hash and upgrades the
// hash when the configured algorithm or parameters changed.
func VerifyPassword(c echo.Context) error {
	var req VerifyPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid password input")
	}
	if err := c.Validate(&req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	a, err := app(c)
	if err != nil {
		return err
	}

	result := VerifyPasswordResult{
		Valid:       a.Hasher.Verify(req.Password, req.Hash),
		NeedsRehash: a.Hasher.NeedsRehash(req.Hash),
	}
	if result.Valid && result.NeedsRehash {
		if result.Rehash, err = a.Hasher.Hash(req.Password); err != nil {
			return err
		}
	}

	return a.Responder.SendAjaxCall(c, result, http.StatusOK)
}
