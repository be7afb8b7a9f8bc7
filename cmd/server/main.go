package main

import "authsystem/internal/app"

// @title           Auth System API
// @version         1.0
// @description     Credential and session management service: registration,
// @description     login with lockout, token refresh, password reset and
// @description     email confirmation.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
