package parser

import (
	"io"

	"testbackend/internal/domain"
)

// Parser decodes the report the external runner leaves behind
type Parser interface {
	Parse(r io.Reader) (*domain.RunReport, error)
}

var _ Parser = (*ReportParser)(nil)
