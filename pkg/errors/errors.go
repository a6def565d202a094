/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

const TorcPrefix = "Torc."

/*
   5-digit Error Code Convention: [xx][yyy]
   [xx] Subsystem ID (00-99), used to distinguish errors from different subsystems.
   00: General errors
   01: Spec parsing and expansion errors
   02: Reference resolution and validation errors
   03: Materialisation errors
   04: Status engine errors
   05: Orchestrator and scheduler errors
   [yyy] Error code range (000-999)
*/

// general: 00xxx
const (
	InternalError    = TorcPrefix + "00001"
	TransportFailure = TorcPrefix + "00002"
	NotFound         = TorcPrefix + "00003"
	VersionMismatch  = TorcPrefix + "00004"
)

// spec: 01xxx
const (
	ParseError             = TorcPrefix + "01001"
	ParameterShapeMismatch = TorcPrefix + "01002"
	DuplicateExpandedName  = TorcPrefix + "01003"
)

// resolve/validate: 02xxx
const (
	DuplicateName       = TorcPrefix + "02001"
	UnresolvedReference = TorcPrefix + "02002"
	AmbiguousReference  = TorcPrefix + "02003"
	Cycle               = TorcPrefix + "02004"
	MultipleProducers   = TorcPrefix + "02005"
	ValidationFailure   = TorcPrefix + "02006"
)

// materialise: 03xxx
const (
	MaterialiseError = TorcPrefix + "03001"
)

// status: 04xxx
const (
	MissingInputs = TorcPrefix + "04001"
	ActiveJobs    = TorcPrefix + "04002"
)

// orchestrator/scheduler: 05xxx
const (
	UnauthorisedDelete = TorcPrefix + "05001"
	SubmissionFailure  = TorcPrefix + "05002"
)

// Error is the coded error type carried across every torc subsystem. It
// holds a stable code, a human message, structured context fields, and an
// optional wrapped cause.
type Error struct {
	Code    string
	Message string
	Fields  map[string]any
	Cause   error
}

// Error implements the error interface and returns a formatted error string.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %s", e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithField attaches one structured context field and returns the error for
// chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// WithCause sets the wrapped cause and returns the error for chaining.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeForError returns the torc error code of err, or "" when err does not
// carry one.
func CodeForError(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsTorc reports whether err carries a torc error code.
func IsTorc(err error) bool {
	return strings.HasPrefix(CodeForError(err), TorcPrefix)
}

func is(err error, code string) bool {
	return CodeForError(err) == code
}

func IsParseError(err error) bool             { return is(err, ParseError) }
func IsParameterShapeMismatch(err error) bool { return is(err, ParameterShapeMismatch) }
func IsDuplicateExpandedName(err error) bool  { return is(err, DuplicateExpandedName) }
func IsDuplicateName(err error) bool          { return is(err, DuplicateName) }
func IsUnresolvedReference(err error) bool    { return is(err, UnresolvedReference) }
func IsAmbiguousReference(err error) bool     { return is(err, AmbiguousReference) }
func IsCycle(err error) bool                  { return is(err, Cycle) }
func IsMultipleProducers(err error) bool      { return is(err, MultipleProducers) }
func IsValidationFailure(err error) bool      { return is(err, ValidationFailure) }
func IsMaterialiseError(err error) bool       { return is(err, MaterialiseError) }
func IsMissingInputs(err error) bool          { return is(err, MissingInputs) }
func IsActiveJobs(err error) bool             { return is(err, ActiveJobs) }
func IsUnauthorisedDelete(err error) bool     { return is(err, UnauthorisedDelete) }
func IsTransportFailure(err error) bool       { return is(err, TransportFailure) }
func IsNotFound(err error) bool               { return is(err, NotFound) }
func IsInternal(err error) bool               { return is(err, InternalError) }

// IgnoreNotFound returns nil when err is a torc not-found error.
func IgnoreNotFound(err error) error {
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

// NewParseError reports a workflow document that could not be decoded.
func NewParseError(path, message string) *Error {
	return newError(ParseError, fmt.Sprintf("failed to parse %s: %s", path, message)).
		WithField("path", path)
}

// NewParameterShapeMismatch reports zip-mode parameter lists of unequal length.
func NewParameterShapeMismatch(job, key string) *Error {
	return newError(ParameterShapeMismatch,
		fmt.Sprintf("zip-mode parameter lists must have equal lengths in job template %s", job)).
		WithField("job", job).WithField("key", key)
}

// NewDuplicateExpandedName reports a template whose expansion collided.
func NewDuplicateExpandedName(template, bound string) *Error {
	return newError(DuplicateExpandedName,
		fmt.Sprintf("job template %s expanded to duplicate name %s", template, bound)).
		WithField("template", template).WithField("name", bound)
}

// NewDuplicateName reports two entities of one kind sharing a name.
func NewDuplicateName(kind, name string) *Error {
	return newError(DuplicateName, fmt.Sprintf("duplicate %s name %s", kind, name)).
		WithField("kind", kind).WithField("name", name)
}

// NewUnresolvedReference reports an exact reference with no referent.
func NewUnresolvedReference(kind, name, inJob string) *Error {
	return newError(UnresolvedReference,
		fmt.Sprintf("job %s references unknown %s %s", inJob, kind, name)).
		WithField("kind", kind).WithField("name", name).WithField("job", inJob)
}

// NewAmbiguousReference reports a name matching more than one entity.
func NewAmbiguousReference(kind, name string) *Error {
	return newError(AmbiguousReference,
		fmt.Sprintf("%s name %s matches more than one entity", kind, name)).
		WithField("kind", kind).WithField("name", name)
}

// NewCycle reports a dependency cycle; participants holds one cycle's names.
func NewCycle(kind string, participants []string) *Error {
	return newError(Cycle,
		fmt.Sprintf("%s dependency graph contains a cycle: %s", kind, strings.Join(participants, " -> "))).
		WithField("kind", kind).WithField("participants", participants)
}

// NewMultipleProducers reports an artifact with more than one producer.
func NewMultipleProducers(kind, name string, producers []string) *Error {
	return newError(MultipleProducers,
		fmt.Sprintf("%s %s has multiple producers: %s", kind, name, strings.Join(producers, ", "))).
		WithField("kind", kind).WithField("name", name).WithField("producers", producers)
}

// NewValidationFailure aggregates validation messages for dry-run reporting.
func NewValidationFailure(messages ...string) *Error {
	return newError(ValidationFailure, strings.Join(messages, "; ")).
		WithField("messages", messages)
}

// NewMaterialiseError reports a failed materialisation step. The workflow is
// already rolled back when this error surfaces.
func NewMaterialiseError(step string, cause error) *Error {
	return newError(MaterialiseError, fmt.Sprintf("materialisation failed at step %s", step)).
		WithField("step", step).WithCause(cause)
}

// NewMissingInputs reports input files absent at initialise time.
func NewMissingInputs(files []string) *Error {
	return newError(MissingInputs,
		fmt.Sprintf("input files are missing: %s", strings.Join(files, ", "))).
		WithField("files", files)
}

// NewActiveJobs reports a status reset attempted while jobs are active.
func NewActiveJobs(ids []int64) *Error {
	return newError(ActiveJobs,
		fmt.Sprintf("%d jobs are still pending or running; pass force to override", len(ids))).
		WithField("job_ids", ids)
}

// NewUnauthorisedDelete reports a delete attempted by a non-owner.
func NewUnauthorisedDelete(owner, caller string) *Error {
	return newError(UnauthorisedDelete,
		fmt.Sprintf("workflow is owned by %s, not %s", owner, caller)).
		WithField("owner", owner).WithField("caller", caller)
}

// NewTransportFailure reports a transport, timeout, or protocol error against
// the store. Never retried by the core.
func NewTransportFailure(operation string, cause error) *Error {
	return newError(TransportFailure, fmt.Sprintf("store request %s failed", operation)).
		WithField("operation", operation).WithCause(cause)
}

// NewNotFound reports a missing store entity.
func NewNotFound(kind string, id any) *Error {
	return newError(NotFound, fmt.Sprintf("%s %v not found", kind, id)).
		WithField("kind", kind).WithField("id", id)
}

// NewInternalError reports an unexpected condition.
func NewInternalError(message string) *Error {
	return newError(InternalError, message)
}

// NewVersionMismatch reports a client/server version skew. Surfaced but
// non-fatal.
func NewVersionMismatch(client, server string) *Error {
	return newError(VersionMismatch,
		fmt.Sprintf("client version %s does not match server version %s", client, server)).
		WithField("client", client).WithField("server", server)
}

// NewSubmissionFailure reports a scheduler submission that could not be
// completed.
func NewSubmissionFailure(message string, cause error) *Error {
	return newError(SubmissionFailure, message).WithCause(cause)
}
