package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cors "gopkg.in/gin-contrib/cors.v1"
)

// StartAPIServer launches the API server
func StartAPIServer(surbl *SURBL) error {
	if Config.LogLevel < 2 {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/check/:host", func(c *gin.Context) {
		host := c.Param("host")
		listed, err := surbl.Check(host)
		if err != nil {
			switch err.(type) {
			case MalformedHostError:
				c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case TablesNotLoaded:
				c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			default:
				c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			}
			return
		}

		c.IndentedJSON(http.StatusOK, gin.H{"host": UnFqdn(host), "listed": listed})
	})

	router.GET("/lookup/:host", func(c *gin.Context) {
		result, err := surbl.Lookup(c.Param("host"))
		if err != nil {
			switch err.(type) {
			case MalformedHostError:
				c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case TablesNotLoaded:
				c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			default:
				c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			}
			return
		}

		c.IndentedJSON(http.StatusOK, result)
	})

	router.GET("/tldcache", func(c *gin.Context) {
		tables, err := surbl.store.Tables()
		if err != nil {
			c.IndentedJSON(http.StatusOK, gin.H{"loaded": false})
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{
			"loaded":     true,
			"twolevel":   len(tables.Two),
			"threelevel": len(tables.Three),
		})
	})

	router.GET("/tldcache/refresh", func(c *gin.Context) {
		reloaded, err := surbl.Load()
		if err != nil {
			c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"reloaded": reloaded})
	})

	router.GET("/checklog", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, gin.H{"length": surbl.checkLog.Length(), "items": surbl.checkLog.Backend})
	})

	router.GET("/checklog/length", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, gin.H{"length": surbl.checkLog.Length()})
	})

	router.GET("/checklog/clear", func(c *gin.Context) {
		surbl.checkLog.Clear()
		c.IndentedJSON(http.StatusOK, gin.H{"success": true})
	})

	router.GET("/application/active", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, gin.H{"active": surbldActive})
	})

	router.GET("/application/toggle", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, gin.H{"active": surbldActivation.toggle()})
	})

	router.PUT("/application/active", func(c *gin.Context) {
		switch c.Query("state") {
		case "On", "on":
			surbldActivation.set(true)
		case "Off", "off":
			surbldActivation.set(false)
		default:
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "state must be On or Off"})
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"active": surbldActive})
	})

	logger.Noticef("API server listening on %s", Config.API)

	if err := router.Run(Config.API); err != nil {
		return err
	}

	return nil
}
