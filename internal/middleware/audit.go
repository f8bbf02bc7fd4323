package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/podplan/backend/internal/services"
)

const maxAuditBody = 2000

// AuditLog records write operations to system_logs after the handler ran.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if !isWriteMethod(method) {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > maxAuditBody {
				bodySnippet = bodySnippet[:maxAuditBody] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		userID := GetUserID(c)
		username := GetUsername(c)
		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		services.LogInfo(module, action, formatAuditMessage(username, method, c.Request.URL.Path, status),
			uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
				"audit":  true,
			})
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// parseRouteInfo maps "/api/allocations/:id" + PATCH to ("Allocations", "Update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	module = strings.SplitN(path, "/", 2)[0]
	if module == "" {
		module = "unknown"
	}
	module = titleWords(strings.ReplaceAll(module, "-", " "))

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

// titleWords upper-cases the first letter of each space separated word.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatAuditMessage(username, method, path string, status int) string {
	var b strings.Builder
	b.WriteString("[Audit] ")
	if username == "" {
		username = "anonymous"
	}
	b.WriteString(username)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" -> ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

var sensitiveKeys = []string{"password", "old_password", "new_password", "secret", "token"}

// maskSensitiveFields replaces string values of sensitive keys in a JSON body.
func maskSensitiveFields(body string) string {
	for _, key := range sensitiveKeys {
		body = maskJSONValue(body, key)
	}
	return body
}

// maskJSONValue masks every quoted string value that follows "key":
func maskJSONValue(body, key string) string {
	needle := "\"" + key + "\""
	from := 0
	for {
		lower := strings.ToLower(body)
		rel := strings.Index(lower[from:], needle)
		if rel == -1 {
			return body
		}
		idx := from + rel + len(needle)

		i := idx
		for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
		if i >= len(body) || body[i] != ':' {
			from = idx
			continue
		}
		i++
		for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
		if i >= len(body) || body[i] != '"' {
			from = idx
			continue
		}
		end := strings.Index(body[i+1:], "\"")
		if end == -1 {
			return body
		}
		body = body[:i+1] + "***" + body[i+1+end:]
		from = i + 1 + len("***")
	}
}
