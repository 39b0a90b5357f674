// Package controllers implements the user service endpoints. The
// manifests tree mirrors the route table: one file per module path,
// bound to its controller in Bindings.
package controllers

import (
	"embed"
	"io/fs"

	"github.com/routegate/routegate"
	"github.com/routegate/routegate/internal/store"
)

//go:embed manifests
var manifests embed.FS

// Manifests exposes the embedded controller tree for discovery.
func Manifests() fs.FS {
	return manifests
}

// Bindings maps every module path under manifests to its controller.
func Bindings(st *store.Store) map[string]routegate.Controller {
	return map[string]routegate.Controller{
		"users/post":       &createUserController{store: st},
		"users/{id}/get":   &getUserController{store: st},
		"users/{id}/patch": &patchUserController{store: st},
		"me/get":           &meController{},
	}
}
