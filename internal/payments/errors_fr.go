package payments

import "fmt"

// CardError is a classified failure reported by the payment provider.
type CardError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *CardError) Error() string {
	return fmt.Sprintf("payments: card error %s: %s", e.Code, e.Message)
}

// cardErrorMessages maps provider error codes to the user-facing French
// messages shown in the payment form toast.
var cardErrorMessages = map[string]string{
	"card_declined":      "Votre carte a été refusée. Veuillez vérifier vos informations ou essayer avec une autre carte.",
	"expired_card":       "Votre carte a expiré. Veuillez utiliser une autre carte.",
	"incorrect_cvc":      "Le code de sécurité (CVC) est incorrect. Veuillez vérifier et réessayer.",
	"processing_error":   "Une erreur est survenue lors du traitement de votre carte. Veuillez réessayer dans quelques instants.",
	"insufficient_funds": "Votre carte ne dispose pas de fonds suffisants pour effectuer ce paiement.",
}

// genericCardErrorMessage is the last-resort fallback for unclassified codes.
const genericCardErrorMessage = "Le paiement a échoué. Veuillez réessayer ou utiliser une autre carte."

const (
	msgReferenceInvalid  = "Référence introuvable ou invalide."
	msgReferenceNotFound = "Aucune demande ne correspond à cette référence."
	msgIntentFailed      = "Impossible d'initialiser le paiement. Veuillez réessayer."
)

// FrenchCardErrorMessage returns the localized message for a provider error
// code, falling back to a generic message for unknown codes.
func FrenchCardErrorMessage(code string) string {
	if msg, ok := cardErrorMessages[code]; ok {
		return msg
	}
	return genericCardErrorMessage
}
