package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Module describes a feature module that can register its routes on a RouterGroup
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects modules and mounts them under one API prefix
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	Logger      *logrus.Logger
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine, prefix string, logger *logrus.Logger) *Registry {
	if prefix == "" {
		prefix = "/api"
	}
	return &Registry{Engine: engine, API: engine.Group(prefix), Logger: logger}
}

// Use adds middleware applied to every module route
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	if mod != nil {
		r.modules = append(r.modules, mod)
	}
}

// RegisterAll mounts every module and logs the resulting route table at debug level
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
	if r.Logger == nil {
		return
	}
	for _, rt := range r.Engine.Routes() {
		r.Logger.WithFields(logrus.Fields{"method": rt.Method, "path": rt.Path}).Debug("route registered")
	}
}
