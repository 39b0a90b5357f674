package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/routegate/routegate"
	"github.com/routegate/routegate/apperr"
	"github.com/routegate/routegate/internal/store"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createUserController registers a new user. Public so that signup
// works without a token.
type createUserController struct {
	store *store.Store
}

func (c *createUserController) Public() bool       { return true }
func (c *createUserController) Scope() string      { return "" }
func (c *createUserController) SuccessStatus() int { return http.StatusCreated }

func (c *createUserController) Execute(ctx context.Context, inv *routegate.Invocation) (any, error) {
	if len(inv.RawBody) == 0 {
		return nil, apperr.New(http.StatusBadRequest, "Request body required.")
	}
	var req createUserRequest
	if err := json.Unmarshal(inv.RawBody, &req); err != nil {
		return nil, apperr.New(http.StatusBadRequest, "Invalid JSON body.").WithCause(err)
	}
	missing := map[string]string{}
	if req.Name == "" {
		missing["name"] = "required"
	}
	if req.Email == "" {
		missing["email"] = "required"
	}
	if req.Password == "" {
		missing["password"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperr.New(http.StatusUnprocessableEntity, "Validation failed.").WithData(missing)
	}
	return c.store.CreateUser(ctx, req.Name, req.Email, req.Password)
}

// getUserController reads one user by path id.
type getUserController struct {
	store *store.Store
}

func (c *getUserController) Public() bool       { return false }
func (c *getUserController) Scope() string      { return "read:users" }
func (c *getUserController) SuccessStatus() int { return http.StatusOK }

func (c *getUserController) Execute(ctx context.Context, inv *routegate.Invocation) (any, error) {
	id, err := uuid.Parse(inv.Params["id"])
	if err != nil {
		return nil, apperr.New(http.StatusBadRequest, "Invalid user id.").WithCause(err)
	}
	return c.store.GetUser(ctx, id)
}

// patchUserController applies a partial update to one user.
type patchUserController struct {
	store *store.Store
}

func (c *patchUserController) Public() bool       { return false }
func (c *patchUserController) Scope() string      { return "write:users" }
func (c *patchUserController) SuccessStatus() int { return http.StatusOK }

func (c *patchUserController) Execute(ctx context.Context, inv *routegate.Invocation) (any, error) {
	id, err := uuid.Parse(inv.Params["id"])
	if err != nil {
		return nil, apperr.New(http.StatusBadRequest, "Invalid user id.").WithCause(err)
	}
	var patch store.UserPatch
	if len(inv.RawBody) > 0 {
		if err := json.Unmarshal(inv.RawBody, &patch); err != nil {
			return nil, apperr.New(http.StatusBadRequest, "Invalid JSON body.").WithCause(err)
		}
	}
	if patch.Name == nil && patch.Email == nil {
		return nil, apperr.New(http.StatusBadRequest, "Nothing to update.")
	}
	return c.store.UpdateUser(ctx, id, patch)
}

// meController echoes the authenticated caller. No explicit scope, so
// the router's default scope applies when one is configured.
type meController struct{}

func (c *meController) Public() bool       { return false }
func (c *meController) Scope() string      { return "" }
func (c *meController) SuccessStatus() int { return http.StatusOK }

func (c *meController) Execute(ctx context.Context, inv *routegate.Invocation) (any, error) {
	return map[string]any{
		"subject":  inv.Auth.Subject,
		"name":     inv.Auth.Name,
		"audience": inv.Auth.Audience,
		"scopes":   inv.Auth.Scopes,
	}, nil
}
