package financialimporter

import (
	"github.com/bcaldwell/bistroledger/pkg/apperror"
)

// ImportResult is what callers outside the package see: a success flag, an error
// message they can show, and the import counters.
type ImportResult struct {
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	ErrorKind apperror.Kind `json:"errorKind,omitempty"`
	ImportStats
}

func ResultFromImport(stats ImportStats, err error) ImportResult {
	result := ImportResult{Success: err == nil, ImportStats: stats}
	if err != nil {
		result.Error = apperror.Message(err)
		result.ErrorKind = apperror.KindOf(err)
	}
	return result
}

// FailedResult is the result of an import rejected before any row was read.
func FailedResult(source Source, err error) ImportResult {
	return ResultFromImport(ImportStats{Source: source}, err)
}
