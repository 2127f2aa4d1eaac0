package provider

import (
	apperrors "github.com/payflow/server/internal/shared/errors"
)

// TranslateError maps a tagged gateway error onto the application error
// taxonomy. Engines call this at their boundary so raw provider failures
// never reach API callers.
func TranslateError(err error) error {
	gerr, ok := AsError(err)
	if !ok {
		return apperrors.Internal("unexpected gateway failure", err)
	}

	switch gerr.Kind {
	case KindInvalidRequest:
		return apperrors.InvalidRequest(gerr.Message)
	case KindCardDeclined:
		return apperrors.Upstream("card declined: "+gerr.Message, err)
	case KindTimeout:
		return apperrors.UpstreamTimeout(gerr.Message)
	case KindRateLimited, KindUnavailable:
		return apperrors.Upstream(gerr.Message, err)
	case KindAuth:
		// Provider credentials are server configuration, never the
		// caller's fault.
		return apperrors.Internal("provider authentication failed", err)
	default:
		return apperrors.Upstream(gerr.Message, err)
	}
}
