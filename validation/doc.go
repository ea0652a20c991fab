// Package validation turns raw request input into DTO values and evaluates
// their declarative `validate` rules.
package validation
