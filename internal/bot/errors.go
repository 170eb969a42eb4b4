package bot

import (
	"errors"

	"salonbot/internal/domain"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, domain.ErrSalonNotFound) {
		return msgSalonFetchFailed
	}

	if errors.Is(err, domain.ErrBookingFailed) {
		return msgSaveFailed
	}

	// Default error message
	return msgGenericError
}
