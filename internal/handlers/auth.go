package handlers

import (
	"log/slog"
	"net/http"

	"github.com/portside-sh/portside/internal/auth"
)

// loginPage serves the login form. Authenticated users are bounced
// straight to the dashboard.
func (app *App) loginPage(w http.ResponseWriter, r *http.Request) {
	if !app.AuthEnabled {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if id := auth.CookieValue(r.Header.Get("Cookie"), auth.SessionCookieName); id != "" {
		if _, ok := app.Sessions.Get(id); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	app.servePage(w, "login.html")
}

// login checks the submitted credentials and opens a session. Bad
// username and bad password produce the identical outcome so the form
// can't be used to probe which usernames exist.
func (app *App) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if username != app.Creds.Username || !app.Creds.Verify(password) {
		slog.Warn("failed login attempt", "username", username)
		http.Redirect(w, r, auth.LoginPath+"?error=1", http.StatusSeeOther)
		return
	}

	id := app.Sessions.Create(username)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(app.SessionTimeout.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logout revokes the session named by the cookie, if any, and clears
// the cookie. Always lands on the login page, even without a session.
func (app *App) logout(w http.ResponseWriter, r *http.Request) {
	if id := auth.CookieValue(r.Header.Get("Cookie"), auth.SessionCookieName); id != "" {
		app.Sessions.Remove(id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}
