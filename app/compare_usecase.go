package app

import (
	"io"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/afero"
)

// CompareRequest names the two reports to compare
type CompareRequest struct {
	Current   string
	Previous  string
	Threshold float64
	// OutputPath receives the comparison JSON when set
	OutputPath string

	OutputFormat domain.OutputFormat
	OutputWriter io.Writer
}

// CompareUseCase compares two consolidated reports
type CompareUseCase struct {
	fs        afero.Fs
	formatter *service.OutputFormatterImpl
	now       func() time.Time
}

// NewCompareUseCase creates a compare use case reading from fsys
func NewCompareUseCase(fsys afero.Fs, formatter *service.OutputFormatterImpl) *CompareUseCase {
	return &CompareUseCase{fs: fsys, formatter: formatter, now: time.Now}
}

// Execute reads both reports, compares them and writes the result
func (uc *CompareUseCase) Execute(req CompareRequest) (*domain.ComparisonResult, error) {
	if req.Current == "" || req.Previous == "" {
		return nil, domain.NewInvalidInputError("both current and previous reports are required", nil)
	}
	threshold := req.Threshold
	if threshold < 0 {
		return nil, domain.NewInvalidInputError("regression threshold cannot be negative", nil)
	}

	current, err := service.ReadReport(uc.fs, req.Current)
	if err != nil {
		return nil, err
	}
	previous, err := service.ReadReport(uc.fs, req.Previous)
	if err != nil {
		return nil, err
	}

	result := service.CompareReports(current, previous, threshold, uc.now())

	if req.OutputPath != "" {
		store := service.NewArtifactStoreFs(uc.fs, filepath.Dir(req.OutputPath), nil)
		if _, err := store.WriteJSON(filepath.Base(req.OutputPath), result); err != nil {
			return nil, err
		}
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.WriteComparison(result, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, err
		}
	}
	return result, nil
}
