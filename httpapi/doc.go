// Package httpapi is the HTTP implementation of the session engine's REST
// collaborators: credential exchange against the CRISP auth endpoints and
// the unread-notification count poll. Error payloads are reduced to the
// human-readable message the UI displays; transport details never leak past
// the Client.
package httpapi
