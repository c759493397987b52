package domain

import (
	"context"
	"errors"
)

type Service interface {
	Run(context.Context) (*PipelineRun, error)
	GetRun(context.Context, string) (*PipelineRun, error)
	ListRuns(context.Context) ([]*PipelineRun, error)
}

var (
	ErrInvalidRunID = errors.New("invalid_run_id")
	ErrRunNotFound  = errors.New("run_not_found")
)
