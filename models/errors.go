package models

import "errors"

// Engine error taxonomy. Run-level errors (feed, gateway) abort the whole run
// and are retryable by the caller; record-level errors are recovered locally.
var (
	ErrFeedUnavailable       = errors.New("feed_unavailable")
	ErrMalformedRecord       = errors.New("malformed_record")
	ErrTemplateRender        = errors.New("template_render_error")
	ErrGatewayFailure        = errors.New("gateway_failure")
	ErrConflict              = errors.New("conflict")
	ErrScheduleMisconfigured = errors.New("schedule_misconfigured")

	ErrReservationNotFound = errors.New("reservation_not_found")
	ErrRoomNotFound        = errors.New("room_not_found")
	ErrTemplateNotFound    = errors.New("template_not_found")
	ErrScheduleNotFound    = errors.New("schedule_not_found")
)
