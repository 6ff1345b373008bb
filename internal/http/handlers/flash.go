package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookie = "catalog_flash"

// Flash is a one-shot message shown on the next rendered page. Link, when
// set, is rendered as an anchor after the message.
type Flash struct {
	Message string `json:"m"`
	Link    string `json:"l,omitempty"`
}

func addFlash(c *gin.Context, f Flash) {
	existing := peekFlashes(c)
	existing = append(existing, f)
	raw, err := json.Marshal(existing)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 300, "/", "", false, true)
	c.Set(flashCookie, existing)
}

func peekFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(flashCookie); ok {
		if fl, ok := v.([]Flash); ok {
			return fl
		}
	}
	val, err := c.Cookie(flashCookie)
	if err != nil || val == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(val)
	if err != nil {
		return nil
	}
	var out []Flash
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// popFlashes returns pending messages and clears the cookie.
func popFlashes(c *gin.Context) []Flash {
	out := peekFlashes(c)
	if len(out) > 0 {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
		c.Set(flashCookie, []Flash{})
	}
	return out
}
