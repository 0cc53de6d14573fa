package activation

import (
	"errors"
	"fmt"
	"strconv"
)

// Code is a machine-readable failure code.
type Code string

// Activation failure codes.
const (
	CodeUnknownTechnique    Code = "UNKNOWN_TECHNIQUE"
	CodeUnsupportedContext  Code = "UNSUPPORTED_CONTEXT"
	CodeUnknownSkill        Code = "UNKNOWN_SKILL"
	CodeSkillNotInitialized Code = "SKILL_NOT_INITIALIZED"
	CodeTechniqueNotLearned Code = "TECHNIQUE_NOT_LEARNED"
	CodeOnCooldown          Code = "ON_COOLDOWN"
)

// Training failure codes.
const (
	CodeNotTaught               Code = "NOT_TAUGHT"
	CodeNotTeachable            Code = "NOT_TEACHABLE"
	CodeTrustTooLow             Code = "TRUST_TOO_LOW"
	CodeQuestGate               Code = "QUEST_GATE"
	CodeTierTooLow              Code = "TIER_TOO_LOW"
	CodePrerequisitesMissing    Code = "PREREQUISITES_MISSING"
	CodeAlreadyLearned          Code = "ALREADY_LEARNED"
	CodeSkillAlreadyInitialized Code = "SKILL_ALREADY_INITIALIZED"
)

// Error is a validation failure with structured detail. Two Errors match
// under errors.Is when their codes are equal.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnknownTechnique    = &Error{Code: CodeUnknownTechnique, Message: "unknown technique"}
	ErrUnsupportedContext  = &Error{Code: CodeUnsupportedContext, Message: "unsupported context"}
	ErrUnknownSkill        = &Error{Code: CodeUnknownSkill, Message: "unknown skill"}
	ErrSkillNotInitialized = &Error{Code: CodeSkillNotInitialized, Message: "skill not initialized"}
	ErrTechniqueNotLearned = &Error{Code: CodeTechniqueNotLearned, Message: "technique not learned"}
	ErrOnCooldown          = &Error{Code: CodeOnCooldown, Message: "technique on cooldown"}

	ErrNotTaught               = &Error{Code: CodeNotTaught, Message: "technique not taught by npc"}
	ErrNotTeachable            = &Error{Code: CodeNotTeachable, Message: "technique not teachable"}
	ErrTrustTooLow             = &Error{Code: CodeTrustTooLow, Message: "trust too low"}
	ErrQuestGate               = &Error{Code: CodeQuestGate, Message: "quest gate not satisfied"}
	ErrTierTooLow              = &Error{Code: CodeTierTooLow, Message: "skill tier too low"}
	ErrPrerequisitesMissing    = &Error{Code: CodePrerequisitesMissing, Message: "prerequisites missing"}
	ErrAlreadyLearned          = &Error{Code: CodeAlreadyLearned, Message: "technique already learned"}
	ErrSkillAlreadyInitialized = &Error{Code: CodeSkillAlreadyInitialized, Message: "skill already initialized"}
)

// ErrNotFound is returned by a Store when a requested row does not exist.
var ErrNotFound = errors.New("not found")

func newError(code Code, metadata map[string]string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Metadata: metadata}
}

func cooldownError(techniqueID string, current, limit int) *Error {
	return newError(CodeOnCooldown,
		map[string]string{"technique": techniqueID, "current": strconv.Itoa(current), "limit": strconv.Itoa(limit)},
		"technique %q on cooldown: %d/%d uses today", techniqueID, current, limit)
}
