// Package validation provides struct validation via go-playground/validator
// with error reporting through the regkit errors package.
package validation
