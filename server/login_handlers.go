package server

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Code    string // Authorization code (hidden field in form)
	Error   string
}

var loginPageTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.AppName}} - Sign in</title>
  <style>
    body { font-family: system-ui, sans-serif; background: #f4f5f7; display: flex; justify-content: center; padding-top: 10vh; }
    .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.15); padding: 2rem; width: 22rem; }
    h1 { font-size: 1.2rem; margin-top: 0; }
    label { display: block; margin-bottom: .4rem; font-size: .9rem; }
    input[type=password] { width: 100%; padding: .5rem; margin-bottom: 1rem; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
    button { width: 100%; padding: .6rem; border: 0; border-radius: 4px; background: #2457d6; color: #fff; font-size: 1rem; cursor: pointer; }
    .error { color: #b00020; font-size: .85rem; margin-bottom: 1rem; }
  </style>
</head>
<body>
  <div class="card">
    <h1>{{.AppName}}</h1>
    <p>Enter your API key to authorize this client.</p>
    {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
    <form method="POST" action="/oauth/login">
      <input type="hidden" name="code" value="{{.Code}}">
      <label for="api_key">API key</label>
      <input type="password" id="api_key" name="api_key" autocomplete="off" autofocus required>
      <button type="submit">Sign in</button>
    </form>
  </div>
</body>
</html>
`))

// LoginPageHandler displays the login page (GET /oauth/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "session not started", http.StatusBadRequest)
			return
		}

		data := LoginPageData{
			AppName: s.config.GetAppName(),
			Code:    code,
			Error:   r.URL.Query().Get("error"),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := loginPageTemplate.Execute(w, data); err != nil {
			s.logger.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		code := r.FormValue("code")
		apiKey := r.FormValue("api_key")

		if code == "" {
			http.Error(w, "Missing authorization session", http.StatusBadRequest)
			return
		}
		if apiKey == "" {
			s.renderLoginError(w, r, code, "API key is required")
			return
		}

		session, err := s.auth.Login(r.Context(), code, apiKey)
		if err != nil {
			s.renderLoginError(w, r, code, "Invalid API key")
			return
		}

		// Back to the client with the authorization code
		separator := "?"
		if strings.Contains(session.RedirectURI, "?") {
			separator = "&"
		}
		target := session.RedirectURI + separator + "code=" + url.QueryEscape(code)
		if session.State != "" {
			target += "&state=" + url.QueryEscape(session.State)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, code, errorMsg string) {
	redirectURL := RouteOAuthLogin + "?code=" + url.QueryEscape(code) + "&error=" + url.QueryEscape(errorMsg)
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}
