/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeForError(t *testing.T) {
	err := NewNotFound("workflow", 42)
	assert.Equal(t, NotFound, CodeForError(err))
	assert.True(t, IsNotFound(err))
	assert.True(t, IsTorc(err))

	assert.Equal(t, "", CodeForError(stderrors.New("plain")))
	assert.Equal(t, "", CodeForError(nil))
	assert.False(t, IsTorc(stderrors.New("plain")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("while initialising: %w", NewMissingInputs([]string{"/data/in"}))
	assert.True(t, IsMissingInputs(wrapped))
	assert.Equal(t, MissingInputs, CodeForError(wrapped))
}

func TestErrorStringCarriesCodeFieldsAndCause(t *testing.T) {
	err := NewTransportFailure("GET /workflows/1", stderrors.New("connection refused"))
	rendered := err.Error()
	assert.True(t, strings.HasPrefix(rendered, TransportFailure+": "))
	assert.Contains(t, rendered, "operation=GET /workflows/1")
	assert.Contains(t, rendered, "connection refused")
	assert.True(t, stderrors.Is(err, err.Cause))
	var coded *Error
	assert.True(t, stderrors.As(err, &coded))
}

func TestIgnoreNotFound(t *testing.T) {
	assert.NoError(t, IgnoreNotFound(nil))
	assert.NoError(t, IgnoreNotFound(NewNotFound("job", 7)))
	other := NewInternalError("boom")
	assert.Equal(t, error(other), IgnoreNotFound(other))
}

func TestCycleErrorKeepsParticipants(t *testing.T) {
	err := NewCycle("job", []string{"a", "b", "a"})
	participants, ok := err.Fields["participants"].([]string)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "a"}, participants)
	assert.Contains(t, err.Error(), "a -> b -> a")
}
