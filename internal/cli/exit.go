package cli

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/clocktree/pkg/errors"
)

// Exit statuses. Bad input follows the usage convention of 2; bad and missing
// data use sysexits EX_DATAERR and EX_NOINPUT.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitData        = 65
	ExitNoInput     = 66
	ExitInterrupted = 130
)

// ExitCode maps an error returned by the root command to a process status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeMalformedRatio, errors.ErrCodeMissingNode:
		return ExitUsage
	case errors.ErrCodeMalformedTopology:
		return ExitData
	case errors.ErrCodeFileNotFound, errors.ErrCodeNotFound:
		return ExitNoInput
	}
	return ExitFailure
}
