package chat

import (
	"errors"

	"hejchat/provider"
)

// EmptyResponseNotice replaces a blank assistant bubble when the stream ends
// with zero accumulated characters.
const EmptyResponseNotice = "The response was interrupted. Feel free to ask again."

// userFacingError maps a request failure to the text shown in the assistant
// bubble. Errors render inline as the assistant's message, not as an alert.
func userFacingError(err error) string {
	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 401:
			return "Invalid API key. Check your API settings."
		case 400:
			return "Invalid model request. Try a different model in settings."
		case 429:
			return "API rate limit exceeded. Try again later."
		}
		return "Sorry, something went wrong while processing your request."
	}

	var transportErr *provider.TransportError
	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		return "No API key is set. Add one in the API settings."
	case errors.Is(err, provider.ErrStreamUnsupported):
		return "The API response could not be streamed. Try again."
	case errors.As(err, &transportErr):
		return "Could not reach the API. Check your internet connection."
	}

	return "Sorry, something went wrong while processing your request."
}
