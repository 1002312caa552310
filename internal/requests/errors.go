package requests

import "errors"

var (
	// ErrMissingName is returned when the applicant name is incomplete
	ErrMissingName = errors.New("nom et prénom requis")

	// ErrMissingContact is returned when both email and phone are missing
	ErrMissingContact = errors.New("email ou téléphone requis")

	// ErrMissingCategory is returned when no request category was given
	ErrMissingCategory = errors.New("type de demande requis")

	// ErrRequestNotFound is returned when no request matches the reference
	ErrRequestNotFound = errors.New("demande introuvable")
)
