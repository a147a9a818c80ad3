package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"traveldiary/internal/webui"
)

const flashCookie = "td_flash"

// Flash categories used by the templates.
const (
	flashSuccess = "success"
	flashDanger  = "danger"
	flashWarning = "warning"
	flashInfo    = "info"
)

// Flashes stores one-shot messages in a cookie signed with HMAC-SHA256.
type Flashes struct {
	Key    []byte
	Secure bool
}

type flashPayload struct {
	C string `json:"c"`
	M string `json:"m"`
}

// Add queues a message for the next rendered page, keeping any messages
// the request already carries.
func (f *Flashes) Add(w http.ResponseWriter, r *http.Request, category, message string) {
	list := f.read(r)
	list = append(list, webui.Flash{Category: category, Message: message})
	f.write(w, r, list)
}

// Pop returns queued messages and clears the cookie.
func (f *Flashes) Pop(w http.ResponseWriter, r *http.Request) []webui.Flash {
	if _, err := r.Cookie(flashCookie); err != nil {
		return nil
	}
	list := f.read(r)
	f.clear(w, r)
	return list
}

func (f *Flashes) read(r *http.Request) []webui.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	body, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil
	}
	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(want, f.sign(body)) {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil
	}
	var ps []flashPayload
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil
	}
	out := make([]webui.Flash, 0, len(ps))
	for _, p := range ps {
		out = append(out, webui.Flash{Category: p.C, Message: p.M})
	}
	return out
}

func (f *Flashes) write(w http.ResponseWriter, r *http.Request, list []webui.Flash) {
	ps := make([]flashPayload, len(list))
	for i, fl := range list {
		ps[i] = flashPayload{C: fl.Category, M: fl.Message}
	}
	raw, err := json.Marshal(ps)
	if err != nil {
		return
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    body + "." + base64.RawURLEncoding.EncodeToString(f.sign(body)),
		Path:     "/",
		HttpOnly: true,
		Secure:   f.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (f *Flashes) clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   f.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (f *Flashes) sign(body string) []byte {
	mac := hmac.New(sha256.New, f.Key)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
