package main

import (
	"context"
	"time"

	"github.com/djazairmed/mailer/internal/app"
)

// @title           Djazairmed Mailer API
// @version         1.0
// @description     Accepts email dispatch requests and delivers them through an SMTP relay or Exchange Web Services.
// @server          http://localhost:8080
// @securityDefinitions.apikey  ApiKeyAuth
// @in header
// @name x-api-key
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
