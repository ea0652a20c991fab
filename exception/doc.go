// Package exception defines the error kinds surfaced by services: business
// rule failures (ServiceException) and DTO validation failures (ValidationError).
package exception
