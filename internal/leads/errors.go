package leads

import "errors"

var (
	// ErrInvalidName indicates the lead has no name.
	ErrInvalidName = errors.New("Veuillez indiquer votre nom.")
	// ErrMissingContact indicates neither email nor phone was provided.
	ErrMissingContact = errors.New("Veuillez indiquer un e-mail ou un numéro de téléphone.")
	// ErrMissingMessage indicates an empty contact message.
	ErrMissingMessage = errors.New("Veuillez saisir votre message.")
	// ErrLeadNotFound indicates the lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")
)
