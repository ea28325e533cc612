package http

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

const homeTemplateName = "home"

// homeTemplate is the operator landing page
var homeTemplate = template.Must(template.New(homeTemplateName).Parse(`<!DOCTYPE html>
<html>
<head><title>Timepiece Bot</title></head>
<body style="font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px;">
  <h1>Timepiece WhatsApp Bot</h1>
  <h2>Status: Running</h2>
  <p><strong>Products Cached:</strong> {{.Count}}</p>
  <p><strong>Catalog Source:</strong> {{.Source}}</p>
  <p><strong>Website:</strong> {{.Website}}</p>
  <hr>
  <h3>Operator Links</h3>
  <p><a href="/test">Test Status</a> | <a href="/products">View Products</a> | <a href="/refresh-cache">Refresh Cache</a></p>
</body>
</html>
`))

// Home renders the HTML status page
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, homeTemplateName, h.resolver.Snapshot(c.Request.Context()))
}
