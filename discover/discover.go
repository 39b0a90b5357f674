// Package discover turns a controller directory tree into routegate
// module paths: the directory layout is the route table. Discovery is
// sugar over explicit registration; resolution semantics stay in
// routegate.
package discover

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/routegate/routegate"
	"github.com/routegate/routegate/apperr"
)

// Modules walks dir inside fsys and returns one module path per regular
// file, file extension stripped. Dot and underscore prefixed names are
// ignored. Results are sorted so discovery order is deterministic across
// runs and platforms.
func Modules(fsys fs.FS, dir string) ([]string, error) {
	var modules []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel := p
		if dir != "." {
			rel = strings.TrimPrefix(p, dir+"/")
		}
		modules = append(modules, strings.TrimSuffix(rel, path.Ext(rel)))
		return nil
	})
	if err != nil {
		return nil, apperr.Config("walk controller dir %q: %v", dir, err)
	}
	sort.Strings(modules)
	return modules, nil
}

// Routes binds every module discovered under dir to its controller. A
// discovered module with no binding fails the build: a file in the
// controller tree that nothing implements is a configuration mistake,
// not something to skip silently.
func Routes(fsys fs.FS, dir string, controllers map[string]routegate.Controller) ([]routegate.Route, error) {
	modules, err := Modules(fsys, dir)
	if err != nil {
		return nil, err
	}
	routes := make([]routegate.Route, 0, len(modules))
	for _, module := range modules {
		ctrl, ok := controllers[module]
		if !ok {
			return nil, apperr.Config("no controller bound for module %q", module)
		}
		routes = append(routes, routegate.Route{Module: module, Controller: ctrl})
	}
	return routes, nil
}
