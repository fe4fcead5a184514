// Package cron parses the standard five-field cron expressions used to start
// training runs on a recurring schedule.
package cron

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidCronExpression = errors.New("invalid cron expression")
	ErrInvalidTimezone       = errors.New("invalid timezone")
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Schedule struct {
	expr string
	spec cron.Schedule
	loc  *time.Location
}

// Parse reads expr in the given IANA timezone. An empty timezone means UTC.
func Parse(expr, timezone string) (*Schedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	spec, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCronExpression, err)
	}

	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
		}
	}

	return &Schedule{
		expr: expr,
		spec: spec,
		loc:  loc,
	}, nil
}

func (s *Schedule) String() string {
	return s.expr
}

// Next returns the first activation strictly after from.
func (s *Schedule) Next(from time.Time) time.Time {
	return s.spec.Next(from.In(s.loc))
}
