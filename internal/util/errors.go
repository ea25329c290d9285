package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrSectionNotFound   = errors.New("no references section found in document")
	ErrNoReferences      = errors.New("no citation entries parsed from section")
)
