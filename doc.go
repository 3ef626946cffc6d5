// Package main provides the entry point for the UsersHub identity service.
// It runs a web server using the Fiber framework that exposes multi-provider
// authentication (local passwords, CAS, OpenID Connect, LDAP, delegated
// remote instances), self-service account flows and per-application
// permission resolution. The application uses gorm for data persistence.
package main
