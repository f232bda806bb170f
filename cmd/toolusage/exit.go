package main

import "toolusage/internal/domain"

const (
	exitFailure     = 1
	exitUsage       = 2
	exitUnavailable = 3
)

func exitCodeFor(err error) int {
	code, ok := domain.CodeFrom(err)
	if !ok {
		return exitFailure
	}
	switch code {
	case domain.CodeInvalidArgument, domain.CodeNotFound:
		return exitUsage
	case domain.CodeUnavailable:
		return exitUnavailable
	default:
		return exitFailure
	}
}
