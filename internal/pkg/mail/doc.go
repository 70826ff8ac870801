// Package mail contains the transport clients used to hand messages to mail
// servers.
//
// SMTP talks to a generic relay and is built once per process; it dials a new
// session for every Send. EWS speaks Exchange Web Services over SOAP and is
// built per message. Neither type knows about providers,
// routing or configuration sources; that lives in internal/mailer.
package mail
