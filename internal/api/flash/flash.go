// Package flash carries one-shot notification messages across redirects
// using a short-lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const cookieName = "eventease_flash"

// Message categories map to the alert styles rendered by the templates.
const (
	CategorySuccess = "success"
	CategoryWarning = "warning"
	CategoryDanger  = "danger"
	CategoryInfo    = "info"
)

// Message is a single flash notification.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Add appends a message to the flash cookie. Messages already queued on
// this request survive, so a handler can flash more than once before
// redirecting.
func Add(w http.ResponseWriter, r *http.Request, category, text string) {
	messages := peek(r)
	messages = append(messages, Message{Category: category, Text: text})
	setCookie(w, messages)
}

// Pop returns all queued messages and clears the cookie. Handlers that
// render a page call this once, before writing the response body.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	messages := peek(r)
	if len(messages) == 0 {
		return nil
	}
	clearCookie(w)
	return messages
}

func peek(r *http.Request) []Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	raw, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	return messages
}

func setCookie(w http.ResponseWriter, messages []Message) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
