package common

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie that carries flash notices across redirects.
const SessionName = "askdata"

// AddFlash queues msg for the next page load.
func AddFlash(w http.ResponseWriter, r *http.Request, store sessions.Store, msg string) error {
	sess, err := store.Get(r, SessionName)
	if err != nil && sess == nil {
		return err
	}
	sess.AddFlash(msg)
	return sess.Save(r, w)
}

// PopFlashes drains queued notices. Failures yield no notices.
func PopFlashes(w http.ResponseWriter, r *http.Request, store sessions.Store) []string {
	sess, err := store.Get(r, SessionName)
	if err != nil && sess == nil {
		return nil
	}

	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	_ = sess.Save(r, w)
	return msgs
}
