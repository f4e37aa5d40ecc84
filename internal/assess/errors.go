// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import "errors"

// Sentinel errors for assessments. Causes are wrapped alongside them, so
// match with errors.Is.
var (
	ErrValidation      = errors.New("invalid assessment request")
	ErrStorageRead     = errors.New("reading source records failed")
	ErrExternalScoring = errors.New("external scoring failed")

	// ErrStorageWrite wraps history write failures. Assess does not return
	// it; the failure is logged and counted in Stats.
	ErrStorageWrite = errors.New("writing assessment history failed")
)
