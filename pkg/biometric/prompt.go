// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-biokey.
//
// go-biokey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package biometric

import (
	"errors"
	"strings"
)

// ErrInvalidPromptParameters indicates the prompt parameters failed
// validation. Validation happens before any challenge is shown, so this
// error never follows a visible prompt.
var ErrInvalidPromptParameters = errors.New("biometric: invalid prompt parameters")

// PromptInfo holds the text displayed on the biometric challenge. The
// platform requires a non-empty title and a cancel label; the orchestrator
// additionally requires a message so callers cannot show an unexplained
// prompt.
type PromptInfo struct {
	// Title is the challenge dialog title.
	Title string

	// Message describes the operation being authorized.
	Message string

	// CancelLabel is the text of the negative/cancel button.
	CancelLabel string
}

// Validate checks that all required prompt fields are non-empty.
func (p PromptInfo) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.Join(ErrInvalidPromptParameters, errors.New("title is required"))
	}
	if strings.TrimSpace(p.Message) == "" {
		return errors.Join(ErrInvalidPromptParameters, errors.New("message is required"))
	}
	if strings.TrimSpace(p.CancelLabel) == "" {
		return errors.Join(ErrInvalidPromptParameters, errors.New("cancel label is required"))
	}
	return nil
}
