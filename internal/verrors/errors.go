// Package verrors defines the closed set of error kinds that cross the core's
// boundary unchanged, per the error handling design.
package verrors

import "errors"

var (
	ErrManifestParse      = errors.New("manifest parse error")
	ErrManifestInvalid    = errors.New("manifest invalid")
	ErrUnknownCommitKind  = errors.New("unknown commit kind")
	ErrPickerNotFound     = errors.New("picker could not locate a value")
	ErrVersionParse       = errors.New("version is not a dotted triple")
	ErrSizeFail           = errors.New("computed size is fail")
	ErrRepo               = errors.New("repository error")
	ErrIO                 = errors.New("io error")
	ErrPauseFileExists    = errors.New("pause file already exists")
	ErrPauseFileMissing   = errors.New("pause file does not exist")
	ErrBranchMismatch     = errors.New("branch name does not match requirement")
	ErrNoSuchProject      = errors.New("no such project")
	ErrAmbiguousProject   = errors.New("ambiguous project name")
	ErrCoverageEmpty      = errors.New("include pattern matches no files")
)
