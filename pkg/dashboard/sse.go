package dashboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// buildsSSE streams build snapshots via Server-Sent Events
func (d *Dashboard) buildsSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	clientGone := c.Request.Context().Done()

	// Send updates every 2 seconds
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			builds := d.sortedBuilds()

			buildsJSON, err := json.Marshal(builds)
			if err != nil {
				continue
			}

			fmt.Fprintf(c.Writer, "event: builds\n")
			fmt.Fprintf(c.Writer, "data: %s\n\n", buildsJSON)
			c.Writer.Flush()
		}
	}
}
