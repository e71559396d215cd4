package handlers

import "github.com/gin-gonic/gin"

// alerts writes the X-{app}-alert / X-{app}-params / X-{app}-error headers that tell
// clients what happened to which entity.
type alerts struct {
	appName string
	entity  string
}

// set reports a successful write, e.g. "rosterApp.student.created" for id 7.
func (a alerts) set(c *gin.Context, action, id string) {
	if a.appName == "" {
		return
	}
	c.Header("X-"+a.appName+"-alert", a.appName+"."+a.entity+"."+action)
	c.Header("X-"+a.appName+"-params", id)
}

// setError reports a rejected request with its error key.
func (a alerts) setError(c *gin.Context, key string) {
	if a.appName == "" {
		return
	}
	c.Header("X-"+a.appName+"-error", "error."+key)
	c.Header("X-"+a.appName+"-params", a.entity)
}
