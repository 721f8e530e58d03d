package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/pkg/session"
)

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Store  session.Store
	MaxAge time.Duration
	Cookie httputil.CookieConfig
	Logger *slog.Logger
	Now    func() time.Time
}

// Session loads the session named by the cookie, or starts a fresh one, and
// puts it in the request context. A modified session is persisted before
// the response header is written; an emptied one is deleted. New sessions
// that were never written to are not stored.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadSession(r, cfg)

			sw := &sessionWriter{ResponseWriter: w, r: r, sess: sess, cfg: cfg}
			next.ServeHTTP(sw, r.WithContext(session.NewContext(r.Context(), sess)))
			sw.commit()
		})
	}
}

func loadSession(r *http.Request, cfg SessionConfig) *session.Session {
	now := cfg.Now()
	if id, ok := httputil.GetSessionID(r, cfg.Cookie); ok {
		sess, err := cfg.Store.Load(r.Context(), id)
		switch {
		case err == nil && !sess.Expired(now):
			sess.MarkSaved()
			return sess
		case err != nil && !errors.Is(err, session.ErrSessionNotFound):
			cfg.Logger.Error("load session", "error", err)
		}
	}
	sess := session.New(now, cfg.MaxAge)
	sess.MarkSaved()
	return sess
}

// sessionWriter saves the session when the handler first writes. If saving
// fails the handler's response is replaced by a 500.
type sessionWriter struct {
	http.ResponseWriter
	r         *http.Request
	sess      *session.Session
	cfg       SessionConfig
	committed bool
	failed    bool
}

func (w *sessionWriter) WriteHeader(status int) {
	w.commit()
	if w.failed {
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if !w.sess.Modified() {
		return
	}

	ctx := w.r.Context()
	if len(w.sess.Values) == 0 {
		if err := w.cfg.Store.Delete(ctx, w.sess.ID); err != nil {
			w.cfg.Logger.Warn("delete session", "error", err)
		}
		httputil.ClearSessionCookie(w.ResponseWriter, w.cfg.Cookie)
		return
	}

	if err := w.cfg.Store.Save(ctx, w.sess); err != nil {
		w.cfg.Logger.Error("save session", "error", err)
		w.failed = true
		httputil.Error(w.ResponseWriter, http.StatusInternalServerError, "internal server error")
		return
	}
	httputil.SetSessionCookie(w.ResponseWriter, w.sess.ID, w.sess.ExpiresAt, w.cfg.Cookie)
}
