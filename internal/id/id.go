// Package id generates opaque unique identifiers for hub entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a 32-character nanoid using an alphanumeric alphabet.
func Generate() string {
	v, err := gonanoid.Generate(alphabet, 32)
	if err != nil {
		panic(fmt.Sprintf("generate nanoid: %v", err))
	}
	return v
}
