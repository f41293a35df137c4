package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenCookie  = "jwt"
	refreshTokenCookie = "refreshToken"
)

// How long a mailed verification link stays valid.
const verificationTokenTTL = 72 * time.Hour

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	Token *string      `json:"token"`
	User  userResponse `json:"user"`
}

func (app *application) setSessionCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie blanks a session cookie and expires it immediately.
// MaxAge must be negative here: a zero MaxAge would omit the attribute
// entirely and leave the cookie alive in the browser.
func (app *application) clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

// writeSession mints the access/refresh pair and delivers the access token on
// both channels: the JSON body for header-based clients and an HTTP-only
// cookie for same-origin browser use.
func (app *application) writeSession(w http.ResponseWriter, statusCode int, u *user) {
	secret := []byte(app.config.jwt.secret)
	access, err := mintAccessToken(identity{ID: u.ID, Email: u.Email}, app.config.jwt.accessTTL, secret)
	if err != nil {
		app.serverError(w, err)
		return
	}
	refresh, err := mintRefreshToken(u.ID, app.config.jwt.refreshTTL, secret)
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.setSessionCookie(w, accessTokenCookie, access, app.config.jwt.accessTTL)
	app.setSessionCookie(w, refreshTokenCookie, refresh, app.config.jwt.refreshTTL)
	writeJSON(w, statusCode, sessionResponse{
		Token: &access,
		User:  userResponse{ID: u.ID, Email: u.Email},
	})
}

func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v := newValidator()
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeError(w, http.StatusBadRequest, v.toError().Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		app.serverError(w, err)
		return
	}
	u := &user{
		Email:        input.Email,
		PasswordHash: hash,
		IsVerified:   !app.config.requireVerification,
	}
	err = app.store.createUser(u)
	switch {
	case err == errDuplicateEmail:
		writeError(w, http.StatusBadRequest, "email already registered")
		return
	case err != nil:
		app.serverError(w, err)
		return
	}

	if app.config.requireVerification {
		if err := app.sendVerificationMail(u); err != nil {
			log.Println(err)
		}
		writeJSON(w, http.StatusOK, struct {
			Token                     *string      `json:"token"`
			User                      userResponse `json:"user"`
			EmailVerificationRequired bool         `json:"emailVerificationRequired"`
		}{
			Token:                     nil,
			User:                      userResponse{ID: u.ID, Email: u.Email},
			EmailVerificationRequired: true,
		})
		return
	}
	app.writeSession(w, http.StatusOK, u)
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Email == "" || input.Password == "" {
		writeError(w, http.StatusBadRequest, "please provide email and password")
		return
	}

	u, err := app.store.getUserByEmail(input.Email)
	if err != nil {
		app.serverError(w, err)
		return
	}
	// An unknown email and a wrong password must produce identical
	// responses so the endpoint cannot be used to enumerate accounts.
	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	if !u.IsVerified {
		writeJSON(w, http.StatusUnauthorized, struct {
			Message                   string `json:"message"`
			EmailVerificationRequired bool   `json:"emailVerificationRequired"`
			Email                     string `json:"email"`
		}{
			Message:                   "email not verified, please verify your email before logging in",
			EmailVerificationRequired: true,
			Email:                     u.Email,
		})
		return
	}
	app.writeSession(w, http.StatusOK, u)
}

// logoutHandler always succeeds: the cookies are cleared regardless of any
// server-side state.
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	app.clearSessionCookie(w, accessTokenCookie)
	app.clearSessionCookie(w, refreshTokenCookie)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (app *application) refreshHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "you are not logged in")
		return
	}
	userID, err := verifyRefreshToken(cookie.Value, []byte(app.config.jwt.secret))
	if err != nil {
		log.Printf("rejected refresh token: %v", err)
		writeError(w, http.StatusUnauthorized, "invalid authentication token")
		return
	}
	u, err := app.store.getUserByID(userID)
	if err != nil {
		app.serverError(w, err)
		return
	}
	if u == nil || !u.IsVerified {
		writeError(w, http.StatusUnauthorized, "invalid authentication token")
		return
	}
	access, err := mintAccessToken(identity{ID: u.ID, Email: u.Email}, app.config.jwt.accessTTL, []byte(app.config.jwt.secret))
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.setSessionCookie(w, accessTokenCookie, access, app.config.jwt.accessTTL)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token: &access,
		User:  userResponse{ID: u.ID, Email: u.Email},
	})
}

// currentUserHandler echoes the identity from the verified token without a
// store round-trip. A deleted account stays valid until its token expires.
func (app *application) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	writeJSON(w, http.StatusOK, map[string]userResponse{
		"user": {ID: id.ID, Email: id.Email},
	})
}

func (app *application) resendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v := newValidator()
	v.checkEmail(input.Email)
	if v.hasErrors() {
		writeError(w, http.StatusBadRequest, v.toError().Error())
		return
	}
	u, err := app.store.getUserByEmail(input.Email)
	if err != nil {
		app.serverError(w, err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if u.IsVerified {
		writeJSON(w, http.StatusOK, map[string]string{"message": "email already verified"})
		return
	}
	if err := app.sendVerificationMail(u); err != nil {
		log.Println(err)
		writeError(w, http.StatusInternalServerError, "failed to resend verification email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification email has been sent"})
}

func (app *application) verifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeError(w, http.StatusBadRequest, "verification token must be provided")
		return
	}
	userID, err := verifyVerificationToken(tokenStr, []byte(app.config.jwt.secret))
	if err != nil {
		log.Printf("rejected verification token: %v", err)
		writeError(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}
	if err := app.store.markUserVerified(userID); err != nil {
		app.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}
