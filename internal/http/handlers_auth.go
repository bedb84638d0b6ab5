package http

import (
	"net/http"
	"sync/atomic"

	"budgetreview/internal/gate"
	applog "budgetreview/internal/log"
)

const msgBadPassword = "Incorrect password"

func (s *Server) loginPage(next, msg string) pageData {
	return pageData{
		Title:    s.opts.Title,
		Subtitle: s.opts.Subtitle,
		Next:     gate.SafeNext(next),
		Error:    msg,
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if !s.gate.Enabled() || s.gate.Authenticated(r) {
		http.Redirect(w, r, gate.SafeNext(next), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login_page", s.loginPage(next, ""))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	next := r.PostForm.Get("next")
	clientIP := extractClientIP(r)
	logger := applog.FromContext(r.Context())

	token, ok := s.gate.Login(r.PostForm.Get("password"), clientIP)
	if !ok {
		atomic.AddInt64(&s.appMetrics.loginFailures, 1)
		logger.WarnContext(r.Context(), "Rejected dashboard password",
			applog.FieldClientIP, clientIP,
			applog.FieldOperation, applog.OpLogin,
			"error_type", applog.ErrorTypeAuth)
		s.render(w, r, http.StatusUnauthorized, "login_page", s.loginPage(next, msgBadPassword))
		return
	}

	atomic.AddInt64(&s.appMetrics.logins, 1)
	logger.InfoContext(r.Context(), "Dashboard login",
		applog.FieldClientIP, clientIP,
		applog.FieldOperation, applog.OpLogin)
	s.gate.SetCookie(w, token)
	http.Redirect(w, r, gate.SafeNext(next), http.StatusSeeOther)
}

// onLoginLimited answers a throttled login with the form and a 429.
func (s *Server) onLoginLimited(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusTooManyRequests, "login_page",
		s.loginPage(r.FormValue("next"), "Too many attempts. Try again in a minute."))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gate.Logout(s.gate.Token(r))
	s.gate.ClearCookie(w)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Dashboard logout",
		applog.FieldOperation, applog.OpLogout)
	target := gate.LoginPath
	if !s.gate.Enabled() {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
